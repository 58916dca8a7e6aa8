package utils

import (
	"path"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"|?*\x00-\x1f\x7f]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

const maxFilenameBytes = 200

// SanitizeFilename cleans a client-supplied file name for storage and for the
// X-Filename download header. Directory components are dropped and control
// characters removed. The result may be empty.
func SanitizeFilename(filename string) string {
	filename = path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if filename == "." || filename == "/" {
		return ""
	}

	filename = invalidFilenameChars.ReplaceAllString(filename, " ")
	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = strings.TrimSpace(filename)

	if len(filename) > maxFilenameBytes {
		ext := BookExtension(filename)
		cut := maxFilenameBytes - len(ext)
		for cut > 0 && !utf8.RuneStart(filename[cut]) {
			cut--
		}
		filename = strings.TrimSpace(filename[:cut]) + ext
	}
	return filename
}

// KnownBookExtensions contains file extensions commonly used for e-books.
// Compound extensions come before their suffixes.
var KnownBookExtensions = []string{
	".fb2.zip",
	".fb2",
	".epub",
	".pdf",
	".txt",
	".tar.gz",
	".docx",
	".doc",
	".mobi",
	".azw3",
	".azw",
	".djvu",
	".cbz",
}

// BookExtension returns the lower-cased e-book extension of filename, or ""
// when it has none of KnownBookExtensions.
func BookExtension(filename string) string {
	lower := strings.ToLower(filename)
	for _, ext := range KnownBookExtensions {
		if strings.HasSuffix(lower, ext) && len(lower) > len(ext) {
			return ext
		}
	}
	return ""
}
