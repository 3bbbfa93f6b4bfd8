package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// User is any identity that can authenticate: an end user, a hotel employee's
// account, or an administrative (central) actor. The original system split
// administrative accounts into their own table; here a role column plus the
// optional AssociateID covers both.
type User struct {
	ID                   string     `gorm:"primaryKey;size:36" json:"id"`
	Email                *string    `gorm:"uniqueIndex;size:255" json:"email,omitempty"`
	Phone                *string    `gorm:"uniqueIndex;size:32" json:"phone,omitempty"`
	Username             string     `gorm:"size:255" json:"username,omitempty"`
	PasswordHash         *string    `gorm:"size:1024" json:"-"`
	AssociateID          *string    `gorm:"uniqueIndex;size:8" json:"associate_id,omitempty"`
	Role                 Role       `gorm:"size:32;not null;default:user" json:"role"`
	IsEmailVerified      bool       `gorm:"not null;default:false" json:"is_email_verified"`
	IsActive             bool       `gorm:"not null;default:false" json:"is_active"`
	IsPasswordBasedLogin bool       `gorm:"not null;default:false" json:"is_password_based_login"`
	IsEmailBasedLogin    bool       `gorm:"not null;default:false" json:"is_email_based_login"`
	IsPhoneBasedLogin    bool       `gorm:"not null;default:false" json:"is_phone_based_login"`
	LastLoginAt          *time.Time `json:"last_login_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Destination returns whichever contact point the identity carries, email
// first. Used for OTP delivery and cooldown keying.
func (u *User) Destination() string {
	if u.Email != nil && *u.Email != "" {
		return *u.Email
	}
	if u.Phone != nil {
		return *u.Phone
	}
	return ""
}
