package services

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessCode_Format(t *testing.T) {
	format := regexp.MustCompile(`^[A-Z2-9]{4}-[A-Z2-9]{4}-[A-Z2-9]{4}$`)

	for i := 0; i < 100; i++ {
		code, err := GenerateAccessCode()
		require.NoError(t, err)
		assert.Regexp(t, format, code)

		// No ambiguous symbols
		assert.NotContains(t, code, "0")
		assert.NotContains(t, code, "O")
		assert.NotContains(t, code, "1")
		assert.NotContains(t, code, "I")
	}
}

func TestGenerateAccessCode_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code, err := GenerateAccessCode()
		require.NoError(t, err)
		assert.False(t, seen[code], "duplicate access code generated: %s", code)
		seen[code] = true
	}
}

func TestHashAccessCode_Deterministic(t *testing.T) {
	code, err := GenerateAccessCode()
	require.NoError(t, err)

	assert.Equal(t, HashAccessCode(code), HashAccessCode(code))
}

func TestHashAccessCode_NormalizesDisplayForm(t *testing.T) {
	// Display form and compact form must hash identically
	assert.Equal(t, HashAccessCode("A7K2-M9P4-XQ2R"), HashAccessCode("A7K2M9P4XQ2R"))
	assert.Equal(t, HashAccessCode("A7K2-M9P4-XQ2R"), HashAccessCode("a7k2 m9p4 xq2r"))
}

func TestHashAccessCode_NeverContainsPlaintext(t *testing.T) {
	code, err := GenerateAccessCode()
	require.NoError(t, err)

	hash := HashAccessCode(code)
	assert.Len(t, hash, 64)
	assert.Equal(t, strings.ToLower(hash), hash)
	assert.NotContains(t, hash, NormalizeAccessCode(code))
}

func TestHashAccessCode_DifferentCodesDifferentHashes(t *testing.T) {
	a, err := GenerateAccessCode()
	require.NoError(t, err)
	b, err := GenerateAccessCode()
	require.NoError(t, err)

	assert.NotEqual(t, HashAccessCode(a), HashAccessCode(b))
}
