package constants

import "strings"

// AllowedImageExtensions holds the page-image extensions the batch loader accepts.
var AllowedImageExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
}

// OCRTextExtension is the extension of per-page OCR text artifacts.
const OCRTextExtension = "txt"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
