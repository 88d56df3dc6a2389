package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidWalletAddress(t *testing.T) {
	assert.True(t, validWalletAddress("0x1234567890abcdef1234567890abcdef12345678"))

	assert.False(t, validWalletAddress(""))
	assert.False(t, validWalletAddress("0x123")) // too short
	assert.False(t, validWalletAddress("1234567890abcdef1234567890abcdef12345678ab")) // no 0x prefix
	assert.False(t, validWalletAddress("0x1234567890abcdef1234567890abcdef1234567g")) // non-hex
	assert.False(t, validWalletAddress("0x1234567890ABCDEF1234567890abcdef12345678")) // callers must lowercase first
}
