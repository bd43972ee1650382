package commission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPurchaseVelocityExceeded(t *testing.T) {
	// The sale being recorded counts toward the window, so the 11th
	// purchase in an hour is the first one over the limit of 10.
	assert.False(t, purchaseVelocityExceeded(0))
	assert.False(t, purchaseVelocityExceeded(9))
	assert.True(t, purchaseVelocityExceeded(10))
	assert.True(t, purchaseVelocityExceeded(25))
}
