package constants

import "strings"

const (
	PDF  = "PDF"
	XLSX = "XLSX"
	TXT  = "TXT"
)

// FileTypes holds the allowed values for documents.format.
var FileTypes = []string{PDF, XLSX, TXT}

// AllowedExtensions holds the extensions accepted for matrix documents.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"xlsx": {},
	"xlsm": {},
	"txt":  {},
	"csv":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns "" for unsupported extensions.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "xlsx", "xlsm":
		return XLSX
	case "txt", "csv":
		return TXT
	default:
		return ""
	}
}

// MinExtractableChars is the default floor below which a document is treated
// as a scan or garbage.
const MinExtractableChars = 40
