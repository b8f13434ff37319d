package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 0.1235, Round4(0.12345))
	assert.Equal(t, 0.1234, Round4(0.12344))
	assert.Equal(t, 93.01, Round2(93.005))
	assert.Equal(t, -1.23, Round2(-1.2345))
	assert.Equal(t, 100.0, Round2(100))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-0.5, 0, 1))
	assert.Equal(t, 1.0, Clamp(1.5, 0, 1))
	assert.Equal(t, 0.7, Clamp(0.7, 0, 1))
}
