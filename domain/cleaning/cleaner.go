// Package cleaning implements the property cleaner: normalization and
// deduplication of property values prior to validation/persistence.
package cleaning

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var dateFields = map[string]bool{
	"birthDate": true, "deathDate": true, "date": true, "startDate": true,
	"endDate": true, "incorporationDate": true, "dissolutionDate": true,
	"retrievedAt": true, "modifiedAt": true,
}

var numberFields = map[string]bool{
	"amount": true, "amountUsd": true, "amountEur": true, "confidence": true,
	"percentage": true, "charStart": true, "charEnd": true,
}

var countryFields = map[string]bool{
	"country": true, "countries": true, "nationality": true, "jurisdiction": true,
}

var lowercaseFields = map[string]bool{
	"email": true, "sourceUrl": true, "website": true,
}

var candidateDateLayouts = []string{
	"2006-01-02", "01/02/2006", "02-01-2006", "January 2, 2006", "Jan 2, 2006",
	"2 January 2006", "2006/01/02",
}

var (
	yearOnlyRegex  = regexp.MustCompile(`^\d{4}$`)
	yearMonthRegex = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

// Clean returns a new property map where each value list has been
// normalized per the six rules. Key order of the output is unspecified;
// value order within a key preserves first-seen order.
func Clean(properties map[string][]string) map[string][]string {
	out := make(map[string][]string, len(properties))
	for key, values := range properties {
		cleanedValues := make([]string, 0, len(values))
		for _, v := range values {
			trimmed := strings.Join(strings.Fields(v), " ")
			if trimmed == "" {
				continue
			}
			if cleaned := cleanOneValue(key, trimmed); cleaned != "" {
				cleanedValues = append(cleanedValues, cleaned)
			}
		}
		deduped := dedupeCaseInsensitive(cleanedValues)
		if len(deduped) > 0 {
			out[key] = deduped
		}
	}
	return out
}

func cleanOneValue(key, value string) string {
	switch {
	case dateFields[key]:
		return cleanDate(value)
	case numberFields[key]:
		return cleanNumber(value)
	case countryFields[key]:
		if len(value) == 2 {
			return strings.ToLower(value)
		}
		return value
	case lowercaseFields[key]:
		return strings.ToLower(value)
	default:
		return value
	}
}

func cleanDate(value string) string {
	if yearOnlyRegex.MatchString(value) || yearMonthRegex.MatchString(value) {
		return value
	}
	for _, layout := range candidateDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return value // unparseable values pass through unchanged
}

func cleanNumber(value string) string {
	stripped := strings.NewReplacer(",", "", " ", "").Replace(value)
	stripped = strings.TrimSuffix(stripped, "%")
	if stripped == "" {
		return ""
	}
	f, err := strconv.ParseFloat(stripped, 64)
	if err != nil {
		return "" // unparseable values are dropped
	}
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func dedupeCaseInsensitive(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
