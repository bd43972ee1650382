package referral

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRates(t *testing.T) {
	rates := DefaultRates()

	assert.Equal(t, 0.10, rates.Rate(1))
	assert.Equal(t, 0.08, rates.Rate(2))
	assert.Equal(t, 0.06, rates.Rate(3))
	assert.Equal(t, 0.04, rates.Rate(4))
	assert.Equal(t, 0.02, rates.Rate(5))
}

func TestRatesDecreaseByLevel(t *testing.T) {
	rates := DefaultRates()
	for level := 2; level <= 5; level++ {
		assert.Less(t, rates.Rate(level), rates.Rate(level-1))
	}
}

func TestUnknownLevelEarnsNothing(t *testing.T) {
	rates := DefaultRates()
	assert.Zero(t, rates.Rate(0))
	assert.Zero(t, rates.Rate(6))
	assert.Zero(t, rates.Rate(-1))
}

func TestRateOverride(t *testing.T) {
	custom := RateTable{1: 0.2, 2: 0.1}
	assert.Equal(t, 0.2, custom.Rate(1))
	assert.Zero(t, custom.Rate(3), "levels absent from an override table pay nothing")
}
