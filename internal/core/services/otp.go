package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

// ============================================================
// Pickup code (OTP) generation
// ============================================================

// CodeLength is the number of digits in a pickup code
const CodeLength = 6

// CodeGenerator produces one-time pickup codes
type CodeGenerator interface {
	Generate() (string, error)
}

// SecureCodeGenerator generates uniformly random digit codes from crypto/rand.
// Leading zeros are allowed, so "042913" is a valid code.
type SecureCodeGenerator struct{}

// Generate returns a random 6-digit code
func (SecureCodeGenerator) Generate() (string, error) {
	result := ""
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate pickup code: %w", err)
		}
		result += fmt.Sprintf("%d", n.Int64())
	}
	return result, nil
}

var codePattern = regexp.MustCompile(`^[0-9]{6}$`)

// ValidCodeFormat reports whether a submitted code is 6 digits
func ValidCodeFormat(code string) bool {
	return codePattern.MatchString(code)
}
