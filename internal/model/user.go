package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// ValidRole reports whether r is a member of the role enumeration.
func ValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// User represents an account in the system. Password material and soft-delete
// state never leave the server; the json tags enforce that on every response.
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Photo        string    `json:"photo" gorm:"size:255;default:'default.jpg'"`
	Role         Role      `json:"role" gorm:"size:50;default:'user';index"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`

	PasswordChangedAt    *time.Time `json:"-"`
	PasswordResetToken   string     `json:"-" gorm:"size:64;index"`
	PasswordResetExpires *time.Time `json:"-"`

	Active bool `json:"-" gorm:"default:true;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate sets the UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// ChangedPasswordAfter reports whether the password was changed after the
// given token issue time. The comparison is at one-second granularity so a
// credential issued in the same second as the change stays valid.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > issuedAt.Unix()
}
