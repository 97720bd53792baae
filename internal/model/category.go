package model

import "time"

// Category groups tasks by area (work, errands, etc.). Its ID is the
// sanitized name and is unique per user.
type Category struct {
	UserID    string    `gorm:"primaryKey;size:64" json:"-"`
	ID        string    `gorm:"primaryKey;size:100" json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
