package course

import (
	"crypto/rand"
	"math/big"
)

const (
	inviteCharset    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	inviteCodeLength = 10
)

// GenerateInviteCode returns a random invite code of upper-case letters and digits.
func GenerateInviteCode() (string, error) {
	code := make([]byte, inviteCodeLength)
	max := big.NewInt(int64(len(inviteCharset)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = inviteCharset[n.Int64()]
	}
	return string(code), nil
}
