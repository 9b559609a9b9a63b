package extract

import (
	"fmt"

	"github.com/lu4p/cat"
)

// extractODF extracts text from OpenDocument (.odt) and RTF bytes.
// Format detection is content-based, so a mislabeled extension still extracts.
func extractODF(content []byte) (string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", fmt.Errorf("extract document text: %w", err)
	}
	return text, nil
}
