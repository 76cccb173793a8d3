package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"unicode"
	"unicode/utf8"
)

// GenerateToken returns nBytes of crypto/rand output, hex-encoded.
func GenerateToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32 // 256 бит по умолчанию
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateNumericCode returns a uniformly distributed decimal code of exactly
// `digits` characters, leading zeros included.
func GenerateNumericCode(digits int) (string, error) {
	if digits <= 0 || digits > 18 {
		return "", fmt.Errorf("generate code: unsupported length %d", digits)
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}

const slugAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateSlug returns n random base36 characters.
func GenerateSlug(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("generate slug: unsupported length %d", n)
	}
	max := big.NewInt(int64(len(slugAlphabet)))
	out := make([]byte, n)
	for i := range out {
		k, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate slug: %w", err)
		}
		out[i] = slugAlphabet[k.Int64()]
	}
	return string(out), nil
}

// HashSecret is the one-way digest stored in place of tokens and codes.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// SecretMatches compares a submitted secret against a stored hash in constant time.
func SecretMatches(storedHash, secret string) bool {
	if storedHash == "" {
		return false
	}
	got := HashSecret(secret)
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(got)) == 1
}

// MaskEmail keeps the first character of the local part and the domain.
// Display only.
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "***"
	}
	local, domain := email[:at], email[at+1:]
	_, n := utf8.DecodeRuneInString(local)
	return local[:n] + "***@" + domain
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips separators, keeping a leading "+" and the digits.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	var b strings.Builder
	for i, r := range phone {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PhoneEnding returns the last four digits of a phone number.
func PhoneEnding(phone string) string {
	digits := strings.TrimPrefix(NormalizePhone(phone), "+")
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

func MaskPhone(phone string) string {
	end := PhoneEnding(phone)
	if end == "" {
		return ""
	}
	return "***" + end
}

// ValidatePasswordStrength: at least 8 characters and at least three of
// upper, lower, digit, symbol.
func ValidatePasswordStrength(password string) bool {
	if len([]rune(password)) < 8 {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r):
			symbol = true
		}
	}
	classes := 0
	for _, ok := range []bool{upper, lower, digit, symbol} {
		if ok {
			classes++
		}
	}
	return classes >= 3
}
