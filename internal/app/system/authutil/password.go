// internal/app/system/authutil/password.go

// Package authutil handles password policy and hashing for portal accounts.
//
// Requirements and Strength are the scoring half, shared by the live
// password meter and server-side checks; Validate is the strict half run
// on submission, which additionally enforces the maximum length.
package authutil

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// Password policy constants.
const (
	MinPasswordLength = 12
	MaxPasswordLength = 128
	BcryptCost        = 12

	// Length bonuses reward passphrases beyond the minimum.
	bonusLength1 = 16
	bonusLength2 = 20
)

// Strength labels.
const (
	LabelWeak   = "Weak"
	LabelMedium = "Medium"
	LabelStrong = "Strong"
)

// PasswordRequirements reports which of the five policy requirements a
// candidate password satisfies.
type PasswordRequirements struct {
	Length    bool `json:"length"`
	Lowercase bool `json:"lowercase"`
	Uppercase bool `json:"uppercase"`
	Number    bool `json:"number"`
	Special   bool `json:"special"`
}

// PasswordStrength is the scored rendering of the requirements, used by
// the password meter on account forms.
type PasswordStrength struct {
	Score      float64 `json:"score"`
	Label      string  `json:"label"`
	Percentage float64 `json:"percentage"`
}

// Requirements evaluates the five boolean policy requirements. The
// maximum length is deliberately not checked here; only Validate
// enforces it.
func Requirements(password string) PasswordRequirements {
	req := PasswordRequirements{
		Length: len(password) >= MinPasswordLength,
	}
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			req.Lowercase = true
		case unicode.IsUpper(r):
			req.Uppercase = true
		case unicode.IsDigit(r):
			req.Number = true
		default:
			req.Special = true
		}
	}
	return req
}

// Strength scores a password: one point per satisfied requirement, plus
// half-point bonuses at 16 and 20 characters. The percentage is capped
// at 100 so bonus points do not overflow the meter.
func Strength(password string) PasswordStrength {
	req := Requirements(password)

	score := 0.0
	for _, ok := range []bool{req.Length, req.Lowercase, req.Uppercase, req.Number, req.Special} {
		if ok {
			score++
		}
	}
	if len(password) >= bonusLength1 {
		score += 0.5
	}
	if len(password) >= bonusLength2 {
		score += 0.5
	}

	label := LabelStrong
	switch {
	case score <= 2:
		label = LabelWeak
	case score <= 3.5:
		label = LabelMedium
	}

	percentage := score / 5 * 100
	if percentage > 100 {
		percentage = 100
	}

	return PasswordStrength{Score: score, Label: label, Percentage: percentage}
}

// Validate returns one human-readable message per unmet requirement,
// for display next to the password field. It also enforces the maximum
// length, which the scoring functions ignore. A nil result means the
// password is acceptable.
func Validate(password string) []string {
	var errs []string

	req := Requirements(password)
	if !req.Length {
		errs = append(errs, fmt.Sprintf("Password must be at least %d characters.", MinPasswordLength))
	}
	if len(password) > MaxPasswordLength {
		errs = append(errs, fmt.Sprintf("Password must be at most %d characters.", MaxPasswordLength))
	}
	if !req.Lowercase {
		errs = append(errs, "Password must contain a lowercase letter.")
	}
	if !req.Uppercase {
		errs = append(errs, "Password must contain an uppercase letter.")
	}
	if !req.Number {
		errs = append(errs, "Password must contain a number.")
	}
	if !req.Special {
		errs = append(errs, "Password must contain a special character.")
	}

	return errs
}

// PasswordRules returns a human-readable description of the password
// policy for display on account forms.
func PasswordRules() string {
	return fmt.Sprintf("Password must be at least %d characters and include lowercase, uppercase, number, and special characters.", MinPasswordLength)
}

// HashPassword hashes a password using bcrypt.
// The password should be checked with Validate first.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plain-text password with a bcrypt hash.
// Returns true if the password matches, false otherwise.
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
