// Package shortcode generates the short alphanumeric keys used as link
// codes and user ids.
package shortcode

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Alphabet is the fixed set of characters codes are drawn from.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultLength is the canonical code length.
const DefaultLength = 6

// Generator produces fixed-length random codes. It makes no uniqueness
// guarantee; the store is responsible for collision handling.
type Generator struct {
	length int
}

// New returns a Generator producing codes of the given length.
// A non-positive length falls back to DefaultLength.
func New(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{length: length}
}

// Next returns a fresh random code.
func (g *Generator) Next() string {
	var builder strings.Builder
	builder.Grow(g.length)
	max := big.NewInt(int64(len(Alphabet)))
	for i := 0; i < g.length; i++ {
		randomIndex, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing means the platform entropy source is
			// broken; nothing sensible to degrade to.
			panic(err)
		}
		builder.WriteByte(Alphabet[randomIndex.Int64()])
	}

	return builder.String()
}

// Length reports the length of codes this generator produces.
func (g *Generator) Length() int {
	return g.length
}
