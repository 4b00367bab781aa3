package checkout

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"

	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// normalizePhone strips formatting punctuation and validates the digits.
func normalizePhone(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if !phonePattern.MatchString(cleaned) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid phone number")
	}
	return cleaned, nil
}

// generateOTP returns a random numeric code of the requested length.
func generateOTP(length int) (string, error) {
	if length <= 0 {
		length = 4
	}
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
