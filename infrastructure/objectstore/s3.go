// Package objectstore implements the object store adapter: S3-compatible
// per-investigation bucket isolation, using the AWS SDK v2
// client-construction idiom (infrastructure/config/config.go,
// infrastructure/di/providers.go) generalized from DynamoDB to S3.
package objectstore

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2s"

	"osintgraph/domain/core/valueobjects"
	apperrors "osintgraph/pkg/errors"
)

const (
	minBucketLen  = 3
	maxBucketLen  = 63
	hashHexDigits = 10 // 10 hex digits from an 8-byte BLAKE2s-256 digest
)

var invalidBucketChars = regexp.MustCompile(`[^a-z0-9.-]`)
var repeatedDashes = regexp.MustCompile(`-{2,}`)

// Store is the S3-compatible implementation of ports.ObjectStore.
type Store struct {
	client *s3.Client
	prefix string
	logger *zap.Logger
}

func NewStore(client *s3.Client, bucketPrefix string, logger *zap.Logger) *Store {
	return &Store{client: client, prefix: bucketPrefix, logger: logger}
}

// BucketNameFor is the pure function behind P8: deterministic, always a
// valid bucket name.
func BucketNameFor(prefix string, investigationID string) string {
	raw := strings.ToLower(prefix + "-" + investigationID)
	sanitized := invalidBucketChars.ReplaceAllString(raw, "-")
	sanitized = repeatedDashes.ReplaceAllString(sanitized, "-")
	sanitized = strings.Trim(sanitized, "-.")

	if len(sanitized) <= maxBucketLen {
		return padToMinimum(sanitized)
	}

	digest := blake2sDigest(raw)
	suffix := hex.EncodeToString(digest)[:hashHexDigits]
	keep := maxBucketLen - len(suffix) - 1 // separator
	if keep > 52 {
		keep = 52
	}
	truncated := strings.TrimRight(sanitized[:keep], "-.")
	return truncated + "-" + suffix
}

func blake2sDigest(input string) []byte {
	h, err := blake2s.New256(nil)
	if err != nil {
		panic(err) // blake2s.New256 only errors on a bad key, which we never pass
	}
	h.Write([]byte(input))
	full := h.Sum(nil)
	return full[:8]
}

func padToMinimum(name string) string {
	if len(name) >= minBucketLen {
		return name
	}
	for len(name) < minBucketLen {
		name += "0"
	}
	return name
}

func (s *Store) EnsureBucket(ctx context.Context, inv valueobjects.InvestigationID) (string, error) {
	bucket := BucketNameFor(s.prefix, inv.String())

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return bucket, nil
	}
	if !isAbsentBucketError(err) {
		return "", apperrors.Unavailable("object store head bucket").WithCause(err)
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	if err != nil && !isAlreadyOwnedError(err) {
		return "", apperrors.Unavailable("object store create bucket").WithCause(err)
	}
	return bucket, nil
}

func isAbsentBucketError(err error) bool {
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &notFound) || errors.As(err, &noSuchBucket) {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{"403", "404", "NoSuchBucket", "NotFound", "AccessDenied"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func isAlreadyOwnedError(err error) bool {
	var owned *types.BucketAlreadyOwnedByYou
	var exists *types.BucketAlreadyExists
	if errors.As(err, &owned) || errors.As(err, &exists) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "BucketAlreadyOwnedByYou") || strings.Contains(msg, "BucketAlreadyExists")
}

func (s *Store) Put(ctx context.Context, inv valueobjects.InvestigationID, documentID, filename, contentType string, body []byte) (string, error) {
	bucket, err := s.EnsureBucket(ctx, inv)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s", documentID, filename)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", apperrors.Unavailable("object store put").WithCause(err)
	}
	return fmt.Sprintf("s3://%s/%s", bucket, key), nil
}

func (s *Store) Get(ctx context.Context, inv valueobjects.InvestigationID, documentID, filename string) ([]byte, error) {
	bucket := BucketNameFor(s.prefix, inv.String())
	key := fmt.Sprintf("%s/%s", documentID, filename)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, apperrors.NotFound("object not found: " + key)
		}
		return nil, apperrors.Unavailable("object store get").WithCause(err)
	}
	defer out.Body.Close()
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return nil, apperrors.Internal("read object body").WithCause(err)
	}
	return buf.Bytes(), nil
}
