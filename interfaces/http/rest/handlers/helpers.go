package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	apperrors "osintgraph/pkg/errors"
)

// respondJSON writes a raw, unwrapped response body on success (no envelope).
func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// respondError maps a DomainError's Kind to the taxonomy's HTTP status
// and writes a uniform {error,message,code,kind} shape.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	de := apperrors.As(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(de.StatusCode)
	body := map[string]interface{}{
		"error":   true,
		"message": de.Message,
		"code":    de.StatusCode,
		"kind":    string(de.Kind),
	}
	if encErr := json.NewEncoder(w).Encode(body); encErr != nil {
		logger.Error("failed to encode error response", zap.Error(encErr))
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func queryFloat(r *http.Request, key string, def float64) float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return f
}
