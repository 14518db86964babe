package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// GenerateToken creates the signature sent with every bridge request.
// Format: nonce:timestamp:hex(sha256(timestamp + key))
func GenerateToken(nonce, key string) string {
	return generateToken(nonce, key, time.Now())
}

func generateToken(nonce, key string, now time.Time) string {
	// The daemon rejects tokens whose timestamp drifts more than a few minutes.
	timestamp := strconv.FormatInt(now.Unix(), 10)

	hash := sha256.Sum256([]byte(timestamp + key))

	return fmt.Sprintf("%s:%s:%s", nonce, timestamp, hex.EncodeToString(hash[:]))
}
