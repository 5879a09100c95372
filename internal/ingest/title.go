package ingest

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleForPath derives a human-readable working title from a source filename.
// Separators become spaces and each word is title-cased; the extension is
// dropped.
func TitleForPath(path string) string {
	// Casers are stateful, so build one per call instead of sharing.
	titleCaser := cases.Title(language.English)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return "Untitled"
	}
	return titleCaser.String(base)
}
