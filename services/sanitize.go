package services

import (
	"html"
	"strings"

	"procurement_flow_go/models"

	"github.com/microcosm-cc/bluemonday"
)

// plainText strips every tag; stage notes and citations are stored as plain text
var plainText = bluemonday.StrictPolicy()

// SanitizeText removes markup and surrounding whitespace from user-supplied text.
// The policy escapes entities on output, so they are decoded again: values are
// served as JSON, not HTML.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(s)))
}

// sanitizeRecord cleans every free-text field of a stage record in place
func sanitizeRecord(rec models.StageRecord) {
	for _, field := range rec.TextFields() {
		*field = SanitizeText(*field)
	}
}
