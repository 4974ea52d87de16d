package shortcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextLengthAndAlphabet(t *testing.T) {
	generator := New(DefaultLength)

	for i := 0; i < 1000; i++ {
		code := generator.Next()
		assert.Len(t, code, DefaultLength)
		for _, symbol := range code {
			assert.True(
				t,
				strings.ContainsRune(Alphabet, symbol),
				"The symbol %q is outside of the generator alphabet", symbol,
			)
		}
	}
}

func TestNextCustomLength(t *testing.T) {
	generator := New(12)
	assert.Len(t, generator.Next(), 12)
	assert.Equal(t, 12, generator.Length())
}

func TestNewFallsBackToDefaultLength(t *testing.T) {
	assert.Len(t, New(0).Next(), DefaultLength)
	assert.Len(t, New(-3).Next(), DefaultLength)
}
