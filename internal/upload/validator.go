package upload

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/basit/forumfiles-backend/internal/apperrors"
)

// Result carries everything the file index needs from a validated upload.
type Result struct {
	SanitizedFilename string
	MimeType          string
	Hash              string
	Size              int64
}

// Validator checks upload content against the configured limits. Detection
// runs on the actual bytes, not the client-declared type or extension.
type Validator struct {
	maxSize      int64
	allowedTypes map[string]bool
}

func NewValidator(maxSize int64, allowedTypes []string) *Validator {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = true
	}
	return &Validator{maxSize: maxSize, allowedTypes: allowed}
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// textExtensions are formats magic-number detection cannot distinguish from
// arbitrary bytes; they fall back to text/plain when the content looks textual.
var textExtensions = map[string]bool{
	".txt": true, ".csv": true, ".md": true, ".json": true,
}

// Validate sniffs the MIME type, enforces the size cap and allow-list,
// sanitizes the display name and computes the content hash.
func (v *Validator) Validate(buf []byte, filename string) (*Result, error) {
	size := int64(len(buf))
	if size > v.maxSize {
		return nil, apperrors.New(apperrors.CodeTooLarge,
			fmt.Sprintf("File size exceeds %dMB limit", v.maxSize/(1024*1024)),
			http.StatusRequestEntityTooLarge)
	}

	mtype := mimetype.Detect(buf)
	detected := mtype.String()
	// strip parameters such as "; charset=utf-8"
	if i := strings.Index(detected, ";"); i >= 0 {
		detected = strings.TrimSpace(detected[:i])
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if detected == "application/octet-stream" && textExtensions[ext] {
		detected = "text/plain"
	}
	if strings.HasPrefix(detected, "text/") && textExtensions[ext] {
		detected = "text/plain"
	}

	if !v.allowedTypes[detected] {
		return nil, apperrors.New(apperrors.CodeUnsupportedType,
			fmt.Sprintf("File type %s is not allowed", detected),
			http.StatusBadRequest)
	}

	sum := sha256.Sum256(buf)

	return &Result{
		SanitizedFilename: SanitizeFilename(filename),
		MimeType:          detected,
		Hash:              hex.EncodeToString(sum[:]),
		Size:              size,
	}, nil
}

// SanitizeFilename reduces a client-supplied name to a bounded, safe character
// set so it can be embedded in a Content-Disposition header later.
func SanitizeFilename(filename string) string {
	name := filepath.Base(filename)
	name = unsafeChars.ReplaceAllString(name, "_")
	if len(name) > 255 {
		name = name[:255]
	}
	if name == "" || name == "." || name == ".." {
		name = "file"
	}
	return name
}
