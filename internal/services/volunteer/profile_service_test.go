package volunteer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateReferralCode(t *testing.T) {
	code := generateReferralCode("Ada Lovelace")

	assert.True(t, strings.HasPrefix(code, "ada-lovelace-"), "code %q should start with the slugged name", code)
	assert.Equal(t, strings.ToLower(code), code, "codes are always lowercase")

	// Random suffix keeps two volunteers with the same name distinct.
	other := generateReferralCode("Ada Lovelace")
	assert.NotEqual(t, code, other)
}

func TestGenerateReferralCodeLongName(t *testing.T) {
	code := generateReferralCode(strings.Repeat("verylongname", 10))

	// base is capped at 20 characters plus the 7-char dash suffix
	assert.LessOrEqual(t, len(code), 27)
}

func TestGenerateReferralCodeEmptyName(t *testing.T) {
	code := generateReferralCode("  ")
	assert.True(t, strings.HasPrefix(code, "volunteer-"), "code %q should fall back to the generic base", code)
}
