package users

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jrsteele09/go-account-service/internal/utils"
)

// MaxPasswordBytes is the longest password bcrypt accepts
const MaxPasswordBytes = 72

// PasswordPolicy decides which passwords are acceptable. It is configured
// explicitly; there is no built-in notion of a "strong" password beyond it.
type PasswordPolicy struct {
	MinLength    int      // Minimum number of characters
	Forbidden    []string // Substrings that may not appear, compared case-insensitively
	Blocklist    []string // Whole passwords that are refused, compared case-insensitively
	RequireUpper bool
	RequireLower bool
	RequireDigit bool
}

// DefaultPasswordPolicy: at least 7 characters, never containing "password",
// and not one of a handful of very common passwords.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength: 7,
		Forbidden: []string{"password"},
		Blocklist: []string{"12345678", "123456789", "qwerty123", "letmein1", "iloveyou", "abc12345", "1q2w3e4r"},
	}
}

// Normalized returns the policy with lower-cased, trimmed word lists
func (p PasswordPolicy) Normalized() PasswordPolicy {
	lower := func(in []string) []string {
		out := utils.NonEmptyStrings(in)
		for i := range out {
			out[i] = strings.ToLower(out[i])
		}
		return out
	}
	p.Forbidden = lower(p.Forbidden)
	p.Blocklist = lower(p.Blocklist)
	return p
}

// Validate returns a human readable error for the first rule the password breaks
func (p PasswordPolicy) Validate(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if len([]rune(password)) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes long", MaxPasswordBytes)
	}

	lowered := strings.ToLower(password)
	for _, word := range p.Forbidden {
		if word != "" && strings.Contains(lowered, strings.ToLower(word)) {
			return fmt.Errorf("password cannot contain %q", word)
		}
	}
	for _, common := range p.Blocklist {
		if lowered == strings.ToLower(common) {
			return fmt.Errorf("password is too common")
		}
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if p.RequireUpper && !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if p.RequireLower && !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if p.RequireDigit && !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}
