package models

import (
	"time"
)

const (
	RoleClient = "client"
	RoleExpert = "expert"
	RoleAdmin  = "admin"
)

// ValidRole reports whether role is one of the known account roles.
func ValidRole(role string) bool {
	switch role {
	case RoleClient, RoleExpert, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	Phone     *string   `gorm:"size:20" json:"phone"`
	Password  string    `gorm:"not null;size:255" json:"-"`
	Role      string    `gorm:"size:20;not null;default:'client'" json:"role"`
	AvatarURL *string   `gorm:"size:500" json:"avatar_url"`
	Gender    *string   `gorm:"size:20" json:"gender"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
