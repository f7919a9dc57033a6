package game

import (
	"math/rand"
	"strings"
)

// codeChars excludes easily confused characters (0/O, 1/I).
const codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the length of a game code.
const CodeLength = 6

// NewCode generates a random game code. Uniqueness is enforced by the
// store; callers retry on collision.
func NewCode(r *rand.Rand) string {
	var b strings.Builder
	b.Grow(CodeLength)
	for i := 0; i < CodeLength; i++ {
		b.WriteByte(codeChars[r.Intn(len(codeChars))])
	}
	return b.String()
}

// NormalizeCode uppercases a user-supplied code; lookups are
// case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
