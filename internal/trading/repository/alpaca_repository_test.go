package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtendedHoursLimitPadding(t *testing.T) {
	// percentage padding dominates for expensive symbols
	assert.Equal(t, "502.50", formatPrice(maxFloat(500*1.005, 500+0.50)))
	assert.Equal(t, "497.50", formatPrice(minFloat(500*0.995, 500-0.50)))

	// fixed padding dominates for cheap symbols
	assert.Equal(t, "10.50", formatPrice(maxFloat(10*1.005, 10+0.50)))
	assert.Equal(t, "9.50", formatPrice(minFloat(10*0.995, 10-0.50)))
}

func TestParseFloat(t *testing.T) {
	assert.Equal(t, 123.45, parseFloat("123.45"))
	assert.Equal(t, 0.0, parseFloat("not-a-number"))
	assert.Equal(t, 0.0, parseFloat(""))
}
