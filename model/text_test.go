package model

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	require.Equal(t, "hello", NormalizeText("  hello \n"))
	require.Equal(t, "", NormalizeText(" \t "))

	// "e" followed by a combining acute accent composes to a single rune
	decomposed := "  cafe\u0301 "
	normalized := NormalizeText(decomposed)
	require.Equal(t, "café", normalized)
	require.Equal(t, 4, utf8.RuneCountInString(normalized))
}
