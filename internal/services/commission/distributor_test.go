package commission

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestDuplicateWriteClassification(t *testing.T) {
	// The ledger's unique reference index turns a concurrent redelivery
	// into a duplicated-key error; anything else stays a real failure.
	assert.True(t, duplicateWrite(gorm.ErrDuplicatedKey))
	assert.True(t, duplicateWrite(fmt.Errorf("error creating ledger entry: %w", gorm.ErrDuplicatedKey)))

	assert.False(t, duplicateWrite(nil))
	assert.False(t, duplicateWrite(errors.New("connection reset")))
	assert.False(t, duplicateWrite(gorm.ErrRecordNotFound))
}
