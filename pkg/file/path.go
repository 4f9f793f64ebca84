package file

import (
	"path/filepath"
	"strings"
)

// StripExt returns the base name of path without its final extension.
// A leading dot (hidden file) is not treated as an extension separator.
func StripExt(path string) string {
	filename := filepath.Base(path)
	lastDot := strings.LastIndex(filename, ".")
	if lastDot <= 0 {
		return filename
	}
	return filename[:lastDot]
}
