package service

import (
	"crypto/rand"
	"encoding/hex"
)

// randomHex returns n bytes of randomness hex encoded.
func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
