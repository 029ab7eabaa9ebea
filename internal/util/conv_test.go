package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "5491155873035", DigitsOnly("+54 9 11 5587-3035"))
	assert.Equal(t, "042", DigitsOnly("0a4b2c"))
	assert.Equal(t, "", DigitsOnly("sin numero"))
	assert.Equal(t, "", DigitsOnly(""))
}
