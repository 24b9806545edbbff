package document

import (
	"regexp"
	"strings"
)

var (
	htmlTagRE    = regexp.MustCompile(`<.*?>`)
	multiSpaceRE = regexp.MustCompile(`\s{2,}`)
)

// Sanitize normalizes chunk text before indexing: strips HTML tags, folds
// newlines into spaces, collapses repeated whitespace, and trims. Chunks that
// end up empty are dropped; metadata is preserved.
func Sanitize(chunks []Document) []Document {
	if len(chunks) == 0 {
		return nil
	}
	out := make([]Document, 0, len(chunks))
	for _, c := range chunks {
		text := htmlTagRE.ReplaceAllString(c.Content, "")
		text = strings.ReplaceAll(text, "\n", " ")
		text = multiSpaceRE.ReplaceAllString(text, " ")
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		out = append(out, Document{Content: text, Metadata: c.Metadata})
	}
	return out
}
