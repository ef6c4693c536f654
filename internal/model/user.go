package model

import (
	"time"

	"github.com/google/uuid"
)

// User is a staff member who signs in and serves tables. The *_digest
// columns hold hashed credentials only; the matching plaintext tokens
// never reach the database.
type User struct {
	ID                  uuid.UUID  `db:"id"`
	Name                string     `db:"name"`
	Email               string     `db:"email"`
	PasswordDigest      string     `db:"password_digest"`
	RememberDigest      *string    `db:"remember_digest"`
	ActivationDigest    *string    `db:"activation_digest"`
	Activated           bool       `db:"activated"`
	ActivatedAt         *time.Time `db:"activated_at"`
	PasswordResetDigest *string    `db:"password_reset_digest"`
	PasswordResetSentAt *time.Time `db:"password_reset_sent_at"`
	// AuthenticationToken is stored in plaintext and compared directly.
	// Uniqueness is enforced by the database, not in process.
	AuthenticationToken string    `db:"authentication_token"`
	PictureKey          *string   `db:"picture_key"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

// UserProfile is the restricted external representation of a user:
// only the name, email and the names of the tables they serve.
type UserProfile struct {
	Name   string      `json:"name"`
	Email  string      `json:"email"`
	Tables []TableName `json:"tables"`
}

type TableName struct {
	Name string `json:"name"`
}

// Profile builds the API projection for a user and the tables they serve.
func (u *User) Profile(tables []Table) UserProfile {
	names := make([]TableName, 0, len(tables))
	for _, t := range tables {
		names = append(names, TableName{Name: t.Name})
	}
	return UserProfile{Name: u.Name, Email: u.Email, Tables: names}
}
