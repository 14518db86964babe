package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"
)

func TestGenerateToken_Format(t *testing.T) {
	now := time.Unix(1700000000, 0)
	token := generateToken("nonce", "secret", now)

	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		t.Fatalf("Expected 3 token parts, got %q", token)
	}
	if parts[0] != "nonce" || parts[1] != "1700000000" {
		t.Errorf("Unexpected nonce/timestamp in %q", token)
	}

	sum := sha256.Sum256([]byte("1700000000secret"))
	if want := hex.EncodeToString(sum[:]); parts[2] != want {
		t.Errorf("Expected hash %s, got %s", want, parts[2])
	}
}

func TestGenerateToken_ChangesWithTime(t *testing.T) {
	a := generateToken("n", "k", time.Unix(1, 0))
	b := generateToken("n", "k", time.Unix(2, 0))
	if a == b {
		t.Error("Expected different tokens for different timestamps")
	}
}
