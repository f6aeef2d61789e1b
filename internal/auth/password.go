package auth

import (
	"net/mail"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	svcErr "github.com/oggyb/campus-connect/internal/errors"
)

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the address shape and, when domain is set, the campus domain.
func ValidateEmail(email, domain string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return svcErr.Validation("invalid email address")
	}
	if domain != "" && !strings.HasSuffix(email, "@"+strings.ToLower(domain)) {
		return svcErr.Validation("email must be a @%s address", domain)
	}
	return nil
}

// ValidatePassword enforces minimum length and at least one digit.
func ValidatePassword(password string, minLength int) error {
	if len(password) < minLength {
		return svcErr.Validation("password must be at least %d characters", minLength)
	}
	hasDigit := false
	for _, r := range password {
		if unicode.IsDigit(r) {
			hasDigit = true
			break
		}
	}
	if !hasDigit {
		return svcErr.Validation("password must contain at least one digit")
	}
	return nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
