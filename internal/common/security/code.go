package security

import (
	"crypto/rand"
	"io"
	"math/big"
	"strings"
)

// ResetCodeLength is the number of digits in a password reset code.
const ResetCodeLength = 6

// GenerateResetCode returns a numeric code where every digit is drawn
// independently from crypto/rand.
func GenerateResetCode() (string, error) {
	return generateDigits(rand.Reader, ResetCodeLength)
}

func generateDigits(src io.Reader, n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(src, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}
