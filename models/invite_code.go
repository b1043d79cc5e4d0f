package models

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	InviteCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	InviteCodeLength   = 8
)

// GenerateInviteCode returns a random 8 character code over [0-9A-Z].
func GenerateInviteCode() (string, error) {
	var sb strings.Builder
	sb.Grow(InviteCodeLength)
	limit := big.NewInt(int64(len(InviteCodeAlphabet)))
	for i := 0; i < InviteCodeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		sb.WriteByte(InviteCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// IsValidInviteCode reports whether code has the shape GenerateInviteCode produces.
func IsValidInviteCode(code string) bool {
	if len(code) != InviteCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(InviteCodeAlphabet, rune(code[i])) {
			return false
		}
	}
	return true
}
