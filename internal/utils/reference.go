package utils

import (
	"fmt"
	"math/rand"
	"time"
)

const referenceCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomString returns n random characters from the reference charset.
func RandomString(n int) string {
	result := make([]byte, n)
	for i := range result {
		result[i] = referenceCharset[rand.Intn(len(referenceCharset))]
	}
	return string(result)
}

// GenerateReference generates a unique reference for ledger events
func GenerateReference(prefix string) string {
	timestamp := time.Now().Format("20060102")
	return fmt.Sprintf("%s_%s_%s", prefix, timestamp, RandomString(8))
}
