package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"protaskinate/internal/model"
	"protaskinate/internal/repository"
)

const maxTitleLength = 200

// TaskInput represents the edit form of a task.
type TaskInput struct {
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	DueDate      *model.Date      `json:"dueDate"`
	RepeatNumber int              `json:"repeatNumber"`
	RepeatUnit   model.RepeatUnit `json:"repeatUnit"`
	Priority     model.Priority   `json:"priority"`
	Categories   []string         `json:"categories"`
	Status       model.Status     `json:"status"`
	// TimeZone is the submitter's IANA zone, kept for recurrence math.
	TimeZone string `json:"timeZone"`
}

// TaskService wraps task-related business logic. Every mutation checks
// ownership before touching the store.
type TaskService struct {
	taskRepo  *repository.TaskRepository
	observers observers
	now       func() time.Time
}

func NewTaskService(taskRepo *repository.TaskRepository, obs ...WriteObserver) *TaskService {
	return &TaskService{taskRepo: taskRepo, observers: obs, now: time.Now}
}

// Observe registers more write observers. Call before serving traffic.
func (s *TaskService) Observe(obs ...WriteObserver) {
	s.observers = append(s.observers, obs...)
}

func (s *TaskService) CreateTask(ctx context.Context, userID string, input TaskInput) (*model.Task, error) {
	if input.Status == "" {
		input.Status = model.StatusToDo
	}
	if err := normalizeInput(&input); err != nil {
		return nil, err
	}

	task := model.Task{
		ID:     uuid.NewString(),
		UserID: userID,
	}
	applyInput(&task, input)
	enterStatus(&task, input.Status, s.now(), input.TimeZone)

	event, err := s.taskRepo.Create(ctx, &task)
	if err != nil {
		log.Printf("[error] create task user=%s: %v", userID, err)
		return nil, err
	}
	log.Printf("[info] task created id=%s user=%s status=%s", task.ID, userID, task.Status)
	s.observers.notify(ctx, event)
	return &task, nil
}

func (s *TaskService) GetTask(ctx context.Context, userID, taskID string) (*model.Task, error) {
	return s.owned(ctx, userID, taskID)
}

func (s *TaskService) ListTasks(ctx context.Context, userID string) ([]model.Task, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, userID)
	if err != nil {
		log.Printf("[error] list tasks user=%s: %v", userID, err)
		return nil, err
	}
	return tasks, nil
}

// UpdateTask applies the full edit form. An empty status keeps the task in
// its current column.
func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID string, input TaskInput) (*model.Task, error) {
	if err := normalizeInput(&input); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, taskID, func(task *model.Task) {
		applyInput(task, input)
		if input.Status != "" {
			enterStatus(task, input.Status, s.now(), input.TimeZone)
		}
	})
}

// MoveTask changes only the status, as a drop on another board column does.
// zone is the mover's time zone and is recorded when the task completes.
func (s *TaskService) MoveTask(ctx context.Context, userID, taskID string, status model.Status, zone string) (*model.Task, error) {
	if !status.Valid() {
		return nil, invalid("status", fmt.Sprintf("unknown status %q", status))
	}
	return s.mutate(ctx, userID, taskID, func(task *model.Task) {
		enterStatus(task, status, s.now(), zone)
	})
}

// RescheduleTask changes only the due date, as a drop on another calendar
// day does. A nil date clears it.
func (s *TaskService) RescheduleTask(ctx context.Context, userID, taskID string, due *model.Date) (*model.Task, error) {
	if due != nil && due.IsZero() {
		due = nil
	}
	return s.mutate(ctx, userID, taskID, func(task *model.Task) {
		task.DueDate = due
	})
}

func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID string) error {
	if _, err := s.owned(ctx, userID, taskID); err != nil {
		return err
	}
	if err := s.taskRepo.Delete(ctx, userID, taskID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		log.Printf("[error] delete task id=%s user=%s: %v", taskID, userID, err)
		return err
	}
	log.Printf("[info] task deleted id=%s user=%s", taskID, userID)
	return nil
}

func (s *TaskService) mutate(ctx context.Context, userID, taskID string, change func(*model.Task)) (*model.Task, error) {
	task, err := s.owned(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	before := task.Status
	change(task)

	event, err := s.taskRepo.Save(ctx, task, before)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Printf("[error] save task id=%s user=%s: %v", taskID, userID, err)
		return nil, err
	}
	log.Printf("[info] task updated id=%s user=%s status=%s->%s", task.ID, userID, before, task.Status)
	s.observers.notify(ctx, event)
	return task, nil
}

func (s *TaskService) owned(ctx context.Context, userID, taskID string) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Printf("[error] find task id=%s: %v", taskID, err)
		return nil, err
	}
	if task.UserID != userID {
		log.Printf("[warn] user=%s denied access to task id=%s owned by %s", userID, taskID, task.UserID)
		return nil, ErrForbidden
	}
	return task, nil
}

// normalizeInput fills defaults and rejects malformed forms.
func normalizeInput(input *TaskInput) error {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return invalid("title", "title is required")
	}
	if utf8.RuneCountInString(input.Title) > maxTitleLength {
		return invalid("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}

	if input.Priority == "" {
		input.Priority = model.PriorityLow
	}
	if !input.Priority.Valid() {
		return invalid("priority", fmt.Sprintf("unknown priority %q", input.Priority))
	}

	if input.Status != "" && !input.Status.Valid() {
		return invalid("status", fmt.Sprintf("unknown status %q", input.Status))
	}

	input.RepeatUnit = input.RepeatUnit.Normalize()
	switch {
	case !input.RepeatUnit.Valid():
		return invalid("repeatUnit", fmt.Sprintf("unknown repeat unit %q", input.RepeatUnit))
	case input.RepeatNumber < 0:
		return invalid("repeatNumber", "repeat frequency cannot be negative")
	case input.RepeatNumber > 0 && input.RepeatUnit == model.RepeatNever:
		return invalid("repeatUnit", "please choose a REPEAT UNIT")
	case input.RepeatUnit != model.RepeatNever && input.RepeatNumber < 1:
		return invalid("repeatNumber", "please choose a REPEAT FREQUENCY")
	}

	if input.DueDate != nil && input.DueDate.IsZero() {
		input.DueDate = nil
	}
	input.Categories = uniqueStrings(input.Categories)
	input.TimeZone = strings.TrimSpace(input.TimeZone)
	return nil
}

func applyInput(task *model.Task, input TaskInput) {
	task.Title = input.Title
	task.Description = input.Description
	task.DueDate = input.DueDate
	task.RepeatNumber = input.RepeatNumber
	task.RepeatUnit = input.RepeatUnit
	task.Priority = input.Priority
	task.Categories = input.Categories
	if input.TimeZone != "" {
		task.TimeZone = input.TimeZone
	}
}

// enterStatus moves task into status and stamps the lifecycle timestamps.
// Leaving completed keeps the old completion time.
func enterStatus(task *model.Task, status model.Status, now time.Time, zone string) {
	if task.Status == status {
		return
	}
	task.Status = status
	switch status {
	case model.StatusInProgress:
		if task.StartedAt == nil {
			started := now
			task.StartedAt = &started
		}
	case model.StatusCompleted:
		completed := now
		task.CompletedAt = &completed
		if zone != "" {
			task.TimeZone = zone
		}
	}
}

func uniqueStrings(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
