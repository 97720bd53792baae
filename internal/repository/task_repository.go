package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"protaskinate/internal/model"
)

// TaskRepository handles CRUD for tasks. Every write also records a
// TaskEvent in the same transaction, so the recurrence trigger sees each
// write at least once.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts task and its create event.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) (*model.TaskEvent, error) {
	var event *model.TaskEvent
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		var err error
		event, err = recordEvent(tx, model.EventCreate, "", task)
		return err
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// CreateIfAbsent inserts task unless a task with the same ID exists. It
// reports whether a row was written; nothing is written otherwise.
func (r *TaskRepository) CreateIfAbsent(ctx context.Context, task *model.Task) (*model.TaskEvent, bool, error) {
	var event *model.TaskEvent
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(task)
		if res.Error != nil {
			return fmt.Errorf("create task: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		var err error
		event, err = recordEvent(tx, model.EventCreate, "", task)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return event, created, nil
}

// Save overwrites every column of an existing task and records an update
// event. before is the status the caller read prior to the change. Saving a
// task that no longer exists returns ErrNotFound.
func (r *TaskRepository) Save(ctx context.Context, task *model.Task, before model.Status) (*model.TaskEvent, error) {
	var event *model.TaskEvent
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(task).Select("*").Omit("id", "created_at").Updates(task)
		if res.Error != nil {
			return fmt.Errorf("save task: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		var err error
		event, err = recordEvent(tx, model.EventUpdate, before, task)
		return err
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, taskID string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("id = ?", taskID).First(&task).Error; err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// ListByUser returns every task owned by userID, oldest first.
func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Delete removes a task for the given user.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).Delete(&model.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func recordEvent(tx *gorm.DB, kind model.EventKind, before model.Status, task *model.Task) (*model.TaskEvent, error) {
	event := &model.TaskEvent{
		TaskID:   task.ID,
		UserID:   task.UserID,
		Kind:     kind,
		Before:   before,
		After:    task.Status,
		Snapshot: *task,
	}
	if err := tx.Create(event).Error; err != nil {
		return nil, fmt.Errorf("record task event: %w", err)
	}
	return event, nil
}
