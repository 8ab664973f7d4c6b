// Package assets embeds the default legal word list.
package assets

import (
	"embed"
	"io/fs"
)

// LegalWordsFile is one word per line; blank lines and "#" comments are ignored.
const LegalWordsFile = "legal_words.txt"

//go:embed legal_words.txt
var FS embed.FS

// OpenLegalWords opens the embedded dictionary.
func OpenLegalWords() (fs.File, error) {
	return FS.Open(LegalWordsFile)
}
