package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ValidWalletAddress reports whether s looks like a 20-byte hex address with
// the 0x prefix.
func ValidWalletAddress(s string) bool {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	if _, err := hex.DecodeString(s[2:]); err != nil {
		return false
	}
	return true
}

// ChecksumAddress normalizes a wallet address to its EIP-55 mixed-case form
// so the same wallet always maps to the same user row regardless of how the
// client cased it.
func ChecksumAddress(address string) (string, error) {
	if !ValidWalletAddress(address) {
		return "", fmt.Errorf("invalid wallet address %q", address)
	}

	lower := strings.ToLower(address[2:])

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	sum := hex.EncodeToString(h.Sum(nil))

	out := make([]byte, len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if c >= 'a' && c <= 'f' && sum[i] >= '8' {
			c = c - 'a' + 'A'
		}
		out[i] = c
	}

	return "0x" + string(out), nil
}

// SyntheticWalletAddress fabricates a random checksummed address. Used only
// by the demo login path, which is disabled outside non-production setups.
func SyntheticWalletAddress() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate address: %w", err)
	}
	return ChecksumAddress("0x" + hex.EncodeToString(b))
}
