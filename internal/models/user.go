package models

import (
	"strings"
	"time"
)

const (
	MaxUsername       = 50
	MaxEmail          = 255
	MinPasswordLength = 4
)

type User struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	Email     string    `db:"email"`
	Password  string    `db:"password_hash"`
	CreatedAt time.Time `db:"created_at"`
}

func (u *User) Validate() error {
	err := firstErr(
		required("username", u.Username),
		maxLen("username", u.Username, MaxUsername),
		required("email", u.Email),
		maxLen("email", u.Email, MaxEmail),
	)
	if err != nil {
		return err
	}
	if !strings.Contains(u.Email, "@") {
		return &ValidationError{Field: "email", Message: "is not a valid address"}
	}
	return nil
}

// ValidatePassword checks a plaintext password before it is hashed.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return &ValidationError{Field: "password", Message: "must be at least 4 characters"}
	}
	return nil
}
