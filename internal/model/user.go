package model

import "time"

// User is the owner of tasks and categories.
type User struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	Email      string    `gorm:"index" json:"email,omitempty"`
	TelegramID *int64    `gorm:"uniqueIndex" json:"-"`
	FirstName  string    `json:"firstName,omitempty"`
	LastName   string    `json:"lastName,omitempty"`
	Username   string    `json:"username,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
