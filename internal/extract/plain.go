package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain returns content as-is, replacing any invalid UTF-8 sequences
// with the replacement character.
func extractPlain(content []byte) (string, error) {
	s := string(content)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	return s, nil
}
