package users

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Fields a profile update may touch. Anything else is rejected.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldAge      = "age"
)

// UpdatableFields is the allow-list for partial profile updates
var UpdatableFields = []string{FieldName, FieldEmail, FieldPassword, FieldAge}

// PasswordHashCost is the bcrypt cost used by HashPassword. Tests lower it.
var PasswordHashCost = bcrypt.DefaultCost

type User struct {
	ID           string    `json:"id"`        // Unique identifier for the user
	Name         string    `json:"name"`      // Display name
	Email        string    `json:"email"`     // Lower-cased, unique email address
	Age          int       `json:"age"`       // Optional age, never negative
	PasswordHash string    `json:"-"`         // Hashed version of the user's password - never serialize
	Tokens       []string  `json:"-"`         // Active session tokens, oldest first - never serialize
	CreatedAt    time.Time `json:"createdAt"` // When the user signed up
	UpdatedAt    time.Time `json:"updatedAt"` // Last profile change
}

// HasToken reports whether token is one of the user's active sessions
func (u *User) HasToken(token string) bool {
	for _, t := range u.Tokens {
		if t == token {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with u
func (u *User) Clone() *User {
	c := *u
	c.Tokens = append([]string(nil), u.Tokens...)
	return &c
}

func IsUpdatableField(field string) bool {
	for _, f := range UpdatableFields {
		if f == field {
			return true
		}
	}
	return false
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword checks a password against the user's hash
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}
