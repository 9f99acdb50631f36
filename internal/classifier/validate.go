// Package classifier holds the interchangeable scoring strategies behind
// ports.Classifier and the registry that resolves them by name.
package classifier

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"ThreatMonitor/internal/domain"
)

// ValidateText rejects inputs no strategy can score.
func ValidateText(text string) error {
	if !utf8.ValidString(text) {
		return fmt.Errorf("%w: text is not valid UTF-8", domain.ErrClassification)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: empty text", domain.ErrClassification)
	}
	return nil
}
