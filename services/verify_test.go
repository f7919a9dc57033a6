package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+15551234567", NormalizePhone("5551234567"))
	assert.Equal(t, "+15551234567", NormalizePhone("(555) 123-4567"))
	assert.Equal(t, "+15551234567", NormalizePhone("15551234567"))
	assert.Equal(t, "+447911123456", NormalizePhone("+44 7911 123456"))
}

func TestVerifierNotConfigured(t *testing.T) {
	v := &TwilioVerifier{}
	assert.ErrorIs(t, v.Send("+15551234567"), ErrVerifyNotConfigured)
	assert.ErrorIs(t, v.Check("+15551234567", "123456"), ErrVerifyNotConfigured)
}
