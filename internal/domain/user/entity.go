package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents the users table. Email is stored lower-cased.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"type:varchar(100);not null"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:text;not null"`
	Role         Role      `gorm:"type:varchar(16);not null;default:user"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (User) TableName() string {
	return "users"
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
