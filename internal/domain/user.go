package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleViewer UserRole = "viewer"
	UserRoleEditor UserRole = "editor"
)

type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	DisplayName  *string   `db:"display_name" json:"display_name,omitempty"`
	Role         UserRole  `db:"role" json:"role"`
	PasswordHash []byte    `db:"password_hash" json:"-"`
	PasswordSalt []byte    `db:"password_salt" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

func (u *User) IsEditor() bool {
	return u.Role == UserRoleEditor
}
