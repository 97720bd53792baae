package model

import "time"

// Status is the board column a task sits in.
type Status string

const (
	StatusToDo       Status = "to-do"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Priority ranks tasks inside a column.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Weight orders priorities: high first. Unknown priorities sort after low.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// RepeatUnit is the unit of a repeat schedule.
type RepeatUnit string

const (
	RepeatNever RepeatUnit = "never"
	RepeatDay   RepeatUnit = "day"
	RepeatWeek  RepeatUnit = "week"
	RepeatMonth RepeatUnit = "month"
)

func (u RepeatUnit) Valid() bool {
	switch u.Normalize() {
	case RepeatNever, RepeatDay, RepeatWeek, RepeatMonth:
		return true
	}
	return false
}

// Normalize maps the empty unit to never.
func (u RepeatUnit) Normalize() RepeatUnit {
	if u == "" {
		return RepeatNever
	}
	return u
}

// Task represents a single item on the board.
type Task struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	UserID       string     `gorm:"index;size:64" json:"userId"`
	Title        string     `gorm:"size:200" json:"title"`
	Description  string     `json:"description"`
	DueDate      *Date      `gorm:"type:text;index" json:"dueDate"`
	TimeZone     string     `json:"timeZone,omitempty"`
	RepeatNumber int        `gorm:"default:0" json:"repeatNumber"`
	RepeatUnit   RepeatUnit `gorm:"default:never" json:"repeatUnit"`
	Priority     Priority   `gorm:"default:low" json:"priority"`
	Categories   []string   `gorm:"serializer:json;type:text" json:"categories"`
	Status       Status     `gorm:"index;default:to-do" json:"status"`
	SourceTaskID string     `gorm:"size:36" json:"sourceTaskId,omitempty"`
	CreatedAt    time.Time  `json:"createdTimestamp"`
	UpdatedAt    time.Time  `json:"lastModifiedTimestamp"`
	StartedAt    *time.Time `json:"startedTimestamp"`
	CompletedAt  *time.Time `json:"completedTimestamp"`
}

// Repeats reports whether the task carries a complete repeat schedule.
func (t Task) Repeats() bool {
	return t.RepeatNumber > 0 && t.RepeatUnit.Normalize() != RepeatNever
}

// HasCategory reports whether id is among the task's categories.
func (t Task) HasCategory(id string) bool {
	for _, c := range t.Categories {
		if c == id {
			return true
		}
	}
	return false
}
