package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	bcryptCost = 12
	// DefaultPasswordLength is the size of generated client and staff passwords.
	DefaultPasswordLength = 12
	passwordAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%"
)

var whitespace = regexp.MustCompile(`\s+`)

// HashPassword hashes a plain password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateLogin derives a login from a display name: lowercased, accents
// stripped, whitespace collapsed to dots, plus a four digit suffix.
// "Élodie  Martin" becomes e.g. "elodie.martin.4821".
func GenerateLogin(name string) (string, error) {
	base, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return "", fmt.Errorf("failed to normalise name: %w", err)
	}
	base = whitespace.ReplaceAllString(base, ".")

	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("failed to generate login suffix: %w", err)
	}
	return fmt.Sprintf("%s.%d", base, 1000+n.Int64()), nil
}

// GeneratePassword returns a random password drawn from letters, digits and !@#$%.
func GeneratePassword(length int) (string, error) {
	if length <= 0 {
		length = DefaultPasswordLength
	}
	max := big.NewInt(int64(len(passwordAlphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		b.WriteByte(passwordAlphabet[n.Int64()])
	}
	return b.String(), nil
}
