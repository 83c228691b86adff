package objectstore

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var validBucketName = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func TestBucketNameForShortInput(t *testing.T) {
	name := BucketNameFor("documents", "x")
	assert.Equal(t, "documents-x", name)
	assert.GreaterOrEqual(t, len(name), minBucketLen)
}

func TestBucketNameForSanitizesInvalidCharacters(t *testing.T) {
	name := BucketNameFor("documents", "Some_Weird ID!!")
	assert.True(t, validBucketName.MatchString(name), "got %q", name)
	assert.NotContains(t, name, "_")
	assert.NotContains(t, name, " ")
	assert.NotContains(t, name, "!")
}

func TestBucketNameForCollapsesRepeatedDashesAndTrims(t *testing.T) {
	name := BucketNameFor("documents", "--a--b--")
	assert.False(t, strings.Contains(name, "--"))
	assert.False(t, strings.HasPrefix(name, "-"))
	assert.False(t, strings.HasSuffix(name, "-"))
}

func TestBucketNameForLongInputIsTruncatedWithDigest(t *testing.T) {
	longID := strings.Repeat("A", 100)
	name := BucketNameFor("documents", longID)

	assert.LessOrEqual(t, len(name), maxBucketLen)
	assert.Equal(t, maxBucketLen, len(name))
	parts := strings.Split(name, "-")
	suffix := parts[len(parts)-1]
	assert.Len(t, suffix, hashHexDigits)
	assert.Regexp(t, "^[0-9a-f]+$", suffix)
}

func TestBucketNameForIsPureAndDeterministic(t *testing.T) {
	a := BucketNameFor("documents", "investigation-123")
	b := BucketNameFor("documents", "investigation-123")
	assert.Equal(t, a, b)
}

func TestBucketNameForAlwaysLowercase(t *testing.T) {
	name := BucketNameFor("Documents", "INV-ABC")
	assert.Equal(t, strings.ToLower(name), name)
}

func TestIsAbsentBucketErrorRecognizesProviderMarkers(t *testing.T) {
	for _, marker := range []string{"403", "404", "NoSuchBucket", "NotFound", "AccessDenied"} {
		err := assertionError(marker)
		assert.True(t, isAbsentBucketError(err), "expected %q to be treated as absent", marker)
	}
	assert.False(t, isAbsentBucketError(assertionError("InternalServerError")))
}

func TestIsAlreadyOwnedErrorRecognizesProviderMarkers(t *testing.T) {
	assert.True(t, isAlreadyOwnedError(assertionError("BucketAlreadyOwnedByYou")))
	assert.True(t, isAlreadyOwnedError(assertionError("BucketAlreadyExists")))
	assert.False(t, isAlreadyOwnedError(assertionError("SomeOtherError")))
}

type assertionError string

func (e assertionError) Error() string { return string(e) }
