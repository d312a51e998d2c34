package model

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText trims surrounding whitespace and puts s in Unicode NFC, so
// that length limits count what users see rather than how it was encoded.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
