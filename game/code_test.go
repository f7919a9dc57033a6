package game_test

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/squarespool/squares-backend/game"

	"github.com/stretchr/testify/assert"
)

func TestNewCode(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	for i := 0; i < 100; i++ {
		code := game.NewCode(r)
		assert.Len(t, code, game.CodeLength)
		for _, ch := range code {
			assert.Contains(t, alphabet, string(ch))
		}
		// Ambiguous characters are excluded from the alphabet.
		assert.NotContains(t, code, "0")
		assert.NotContains(t, code, "O")
		assert.NotContains(t, code, "1")
		assert.NotContains(t, code, "I")
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "ABCD23", game.NormalizeCode("abcd23"))
	assert.Equal(t, "ABCD23", game.NormalizeCode("  AbCd23 "))
	assert.Equal(t, strings.ToUpper("xyz234"), game.NormalizeCode("xyz234"))
}
