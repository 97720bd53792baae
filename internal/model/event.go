package model

import "time"

// EventKind tells whether a task write inserted or changed the task.
type EventKind string

const (
	EventCreate EventKind = "create"
	EventUpdate EventKind = "update"
)

// TaskEvent records one task write. Events are delivered to the recurrence
// trigger at least once, in ID order.
type TaskEvent struct {
	ID          uint      `gorm:"primaryKey"`
	TaskID      string    `gorm:"index;size:36"`
	UserID      string    `gorm:"size:64"`
	Kind        EventKind `gorm:"size:10"`
	Before      Status    `gorm:"size:20"`
	After       Status    `gorm:"size:20"`
	Snapshot    Task      `gorm:"serializer:json;type:text"`
	Attempts    int
	LastError   string
	ProcessedAt *time.Time `gorm:"index"`
	CreatedAt   time.Time
}

// Completes reports whether the write moved the task into completed.
func (e TaskEvent) Completes() bool {
	if e.After != StatusCompleted {
		return false
	}
	return e.Kind == EventCreate || e.Before != StatusCompleted
}
