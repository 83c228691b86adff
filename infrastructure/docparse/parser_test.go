package docparse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlainText(t *testing.T) {
	p, err := Parse([]byte("hello world"), "notes.txt", "")
	require.NoError(t, err)

	assert.Equal(t, "hello world", p.Content)
	assert.Equal(t, "text/plain", p.MimeType)
	assert.Equal(t, "general", p.DocumentType)
}

func TestParseHTMLStripsTags(t *testing.T) {
	html := "<html><body><h1>Title</h1><p>Body text</p></body></html>"
	p, err := Parse([]byte(html), "page.html", "")
	require.NoError(t, err)

	assert.NotContains(t, p.Content, "<")
	assert.Contains(t, p.Content, "Title")
	assert.Contains(t, p.Content, "Body text")
	assert.Equal(t, "text/html", p.MimeType)
}

func TestParseEmailExtractsHeadersAsMetadata(t *testing.T) {
	raw := "From: alice@example.com\r\nTo: bob@example.com\r\nSubject: Hello\r\n\r\nBody of the message.\r\n"
	p, err := Parse([]byte(raw), "message.eml", "")
	require.NoError(t, err)

	assert.Equal(t, "email", p.DocumentType)
	assert.Equal(t, "alice@example.com", p.Metadata["from"])
	assert.Equal(t, "bob@example.com", p.Metadata["to"])
	assert.Equal(t, "Hello", p.Metadata["subject"])
	assert.Contains(t, p.Content, "Body of the message.")
}

func TestParseContentTypeOverridesExtensionHeuristic(t *testing.T) {
	p, err := Parse([]byte("plain"), "noext", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", p.MimeType)
}

func TestParseMimeFromUnknownExtensionDefaultsOctetStream(t *testing.T) {
	p, err := Parse([]byte("data"), "file.bin", "")
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", p.MimeType)
}

func TestDetectsSECFilingMarker(t *testing.T) {
	assert.True(t, DetectsSECFiling("Annual report: FORM 10-K for fiscal year 2025"))
	assert.True(t, DetectsSECFiling("quarterly filing form 10-q disclosures"))
	assert.False(t, DetectsSECFiling("just a regular memo about quarterly sales"))
}

func TestDetectsSECFilingOnlyScansFirst10000Chars(t *testing.T) {
	padding := strings.Repeat("x", 10000)
	content := padding + "FORM 10-K"

	assert.False(t, DetectsSECFiling(content), "marker beyond the 10,000-char scan window must not match")
}

func TestParseClassifiesSECFilingDocumentType(t *testing.T) {
	p, err := Parse([]byte("ANNUAL REPORT FORM 10-K for the period ended..."), "filing.txt", "")
	require.NoError(t, err)
	assert.Equal(t, "sec_filing", p.DocumentType)
}
