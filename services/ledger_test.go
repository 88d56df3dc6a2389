package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "0xabcdef", NormalizeAddress("  0xABCdef "))
	assert.Equal(t, "", NormalizeAddress("   "))
}

func TestValidateActivityInput(t *testing.T) {
	assert.NoError(t, validateActivityInput("0xabc", "Trade", 0))
	assert.NoError(t, validateActivityInput("0xabc", "Trade", 100))

	assert.ErrorIs(t, validateActivityInput("", "Trade", 10), ErrValidation)
	assert.ErrorIs(t, validateActivityInput("  ", "Trade", 10), ErrValidation)
	assert.ErrorIs(t, validateActivityInput("0xabc", "", 10), ErrValidation)
	assert.ErrorIs(t, validateActivityInput("0xabc", "Trade", -1), ErrValidation)
}

func TestNormalizePage(t *testing.T) {
	page, size := normalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)

	page, size = normalizePage(3, 500)
	assert.Equal(t, 3, page)
	assert.Equal(t, 20, size)

	page, size = normalizePage(2, 50)
	assert.Equal(t, 2, page)
	assert.Equal(t, 50, size)
}
