package upload

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basit/forumfiles-backend/internal/apperrors"
	"github.com/basit/forumfiles-backend/internal/config"
)

func newValidator() *Validator {
	return NewValidator(1024*1024, config.DefaultAllowedTypes)
}

func TestValidateTextFile(t *testing.T) {
	v := newValidator()

	res, err := v.Validate([]byte("some plain text"), "notes.txt")
	require.NoError(t, err)

	assert.Equal(t, "text/plain", res.MimeType)
	assert.Equal(t, "notes.txt", res.SanitizedFilename)
	assert.Equal(t, int64(15), res.Size)
	assert.Len(t, res.Hash, 64)
}

func TestValidatePNG(t *testing.T) {
	v := newValidator()

	png := append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, make([]byte, 32)...)
	res, err := v.Validate(png, "logo.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", res.MimeType)
}

func TestValidateSniffsContentNotExtension(t *testing.T) {
	v := newValidator()

	// PDF magic with a lying extension still detects as PDF
	pdf := []byte("%PDF-1.4\n%fake body")
	res, err := v.Validate(pdf, "document.txt")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", res.MimeType)
}

func TestValidateRejectsDisallowedType(t *testing.T) {
	v := newValidator()

	elf := append([]byte{0x7f, 'E', 'L', 'F'}, make([]byte, 60)...)
	_, err := v.Validate(elf, "tool")
	require.Error(t, err)

	appErr := apperrors.From(err)
	assert.Equal(t, apperrors.CodeUnsupportedType, appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPCode)
}

func TestValidateRejectsOversized(t *testing.T) {
	v := NewValidator(16, config.DefaultAllowedTypes)

	_, err := v.Validate(bytes.Repeat([]byte("a"), 17), "big.txt")
	require.Error(t, err)

	appErr := apperrors.From(err)
	assert.Equal(t, apperrors.CodeTooLarge, appErr.Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, appErr.HTTPCode)
}

func TestValidateHashIsDeterministic(t *testing.T) {
	v := newValidator()

	a, err := v.Validate([]byte("identical content"), "a.txt")
	require.NoError(t, err)
	b, err := v.Validate([]byte("identical content"), "b.txt")
	require.NoError(t, err)

	assert.Equal(t, a.Hash, b.Hash)
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"report.txt", "report.txt"},
		{"my file (1).pdf", "my_file__1_.pdf"},
		{"../../etc/passwd", "passwd"},
		{"über straße.txt", "_ber_stra_e.txt"},
		{"", "file"},
		{".", "file"},
		{"..", "file"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeFilename(tc.in), "input %q", tc.in)
	}
}

func TestSanitizeFilenameBoundsLength(t *testing.T) {
	long := strings.Repeat("a", 300) + ".txt"
	got := SanitizeFilename(long)
	assert.Len(t, got, 255)
}
