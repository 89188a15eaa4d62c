package strings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEllipsize(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		maxLen   int
		expected string
	}{
		{name: "short value unchanged", input: "hello", maxLen: 10, expected: "hello"},
		{name: "exact length unchanged", input: "hello", maxLen: 5, expected: "hello"},
		{name: "long value cut", input: "hello world this is a long string", maxLen: 15, expected: "hello world ..."},
		{name: "newlines become spaces", input: "hello\r\n\nworld", maxLen: 20, expected: "hello world"},
		{name: "whitespace runs collapse", input: "  hello \t  world  ", maxLen: 20, expected: "hello world"},
		{name: "non-string values are printed", input: 12345678, maxLen: 6, expected: "123..."},
		{name: "runes are not split", input: "héllo wörld", maxLen: 8, expected: "héllo..."},
		{name: "tiny maxLen is clamped", input: "abcdef", maxLen: 1, expected: "a..."},
		{name: "nil", input: nil, maxLen: 10, expected: "<nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Ellipsize(tt.input, tt.maxLen))
		})
	}
}

func TestEllipsize_DefaultWidth(t *testing.T) {
	got := Ellipsize(strings.Repeat("x", 200), DefaultValueMaxLen)
	assert.Len(t, []rune(got), DefaultValueMaxLen)
	assert.True(t, strings.HasSuffix(got, "..."))
}
