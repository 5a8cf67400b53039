// Package extract pulls the delimited JSON payload out of free-text model
// output and decodes it into the typed quiz and flashcard shapes.
package extract

import (
	"fmt"
	"strings"

	"github.com/akolanti/doctutor/internal/domain/commonModels"
)

const (
	StartMarker = "start_json_"
	EndMarker   = "_end_json"
)

// Extract returns the trimmed text between the first StartMarker and the
// first EndMarker after it. The result is not checked for valid JSON.
func Extract(text string) (string, error) {
	start := strings.Index(text, StartMarker)
	if start < 0 {
		return "", fmt.Errorf("%w: %s not found", commonModels.ErrExtractionFailed, StartMarker)
	}
	body := text[start+len(StartMarker):]

	end := strings.Index(body, EndMarker)
	if end < 0 {
		return "", fmt.Errorf("%w: no %s after %s", commonModels.ErrExtractionFailed, EndMarker, StartMarker)
	}
	return strings.TrimSpace(body[:end]), nil
}
