package models

import (
	"strings"
	"time"
)

type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Email       string    `json:"email" gorm:"uniqueIndex;size:254;not null"`
	Password    string    `json:"-" gorm:"size:128;not null"`
	FirstName   string    `json:"first_name" gorm:"size:30;not null;default:''"`
	LastName    string    `json:"last_name" gorm:"size:30"`
	PhoneNumber string    `json:"phone_number" gorm:"size:15"`
	ProfilePic  string    `json:"-" gorm:"size:255"` // storage key, empty when unset
	IsActive    bool      `json:"is_active" gorm:"not null;default:true"`
	IsStaff     bool      `json:"is_staff" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// UserResponse is the public shape of a user. Optional fields render as null.
type UserResponse struct {
	ID          uint    `json:"id"`
	Email       string  `json:"email"`
	FirstName   string  `json:"first_name"`
	LastName    *string `json:"last_name"`
	FullName    string  `json:"full_name,omitempty"`
	PhoneNumber *string `json:"phone_number"`
	ProfilePic  *string `json:"profile_pic"`
}

// ToResponse renders the user; urlFor turns a storage key into a public URL.
func (u *User) ToResponse(urlFor func(key string) string, withFullName bool) UserResponse {
	resp := UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    nullable(u.LastName),
		PhoneNumber: nullable(u.PhoneNumber),
	}
	if u.ProfilePic != "" && urlFor != nil {
		url := urlFor(u.ProfilePic)
		resp.ProfilePic = &url
	}
	if withFullName {
		resp.FullName = strings.TrimSpace(u.FullName())
	}
	return resp
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
