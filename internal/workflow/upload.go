package workflow

import (
	"path/filepath"
	"strings"
)

// MaxFileSize is the largest image accepted for analysis (10 MiB).
const MaxFileSize int64 = 10 * 1024 * 1024

// Rejection is a reason the drop/pick surface refused a file. Values mirror
// the codes browsers' dropzone widgets report.
type Rejection string

const (
	RejectInvalidType Rejection = "file-invalid-type"
	RejectTooLarge    Rejection = "file-too-large"
	RejectTooMany     Rejection = "too-many-files"
	RejectEmpty       Rejection = "file-empty"
)

var acceptedTypes = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
}

// NormalizeContentType resolves the declared media type of a file. Browsers
// sometimes send application/octet-stream, in which case the extension decides.
func NormalizeContentType(filename, declared string) string {
	ct := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "image/jpg" {
		ct = "image/jpeg"
	}
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for t, exts := range acceptedTypes {
		for _, e := range exts {
			if e == ext {
				return t
			}
		}
	}
	return ct
}

// CheckFile applies the surface rules: JPEG or PNG, non-empty, at most
// maxSize bytes. A non-positive maxSize means MaxFileSize.
func CheckFile(filename, contentType string, size, maxSize int64) []Rejection {
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}

	var reasons []Rejection
	if _, ok := acceptedTypes[NormalizeContentType(filename, contentType)]; !ok {
		reasons = append(reasons, RejectInvalidType)
	}
	if size > maxSize {
		reasons = append(reasons, RejectTooLarge)
	}
	if size == 0 {
		reasons = append(reasons, RejectEmpty)
	}
	return reasons
}
