package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"protaskinate/internal/model"
	"protaskinate/internal/recurrence"
	"protaskinate/internal/repository"
)

// regeneratedNamespace scopes the ids of regenerated tasks.
var regeneratedNamespace = uuid.MustParse("6f1c7a3e-3b0e-4f55-9d7a-2a43c2f0b8d1")

// RegeneratedID is the id of the task that follows sourceID completed at
// completedAt. Replays of the same completion map to the same id.
func RegeneratedID(sourceID string, completedAt time.Time) string {
	key := sourceID + "|" + completedAt.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(regeneratedNamespace, []byte(key)).String()
}

// RecurrenceTrigger creates the next occurrence of a repeating task when a
// write completes it.
type RecurrenceTrigger struct {
	taskRepo     *repository.TaskRepository
	fallbackZone string
	observers    observers
}

func NewRecurrenceTrigger(taskRepo *repository.TaskRepository, fallbackZone string, obs ...WriteObserver) *RecurrenceTrigger {
	return &RecurrenceTrigger{taskRepo: taskRepo, fallbackZone: fallbackZone, observers: obs}
}

// Observe registers more write observers for regenerated tasks.
func (t *RecurrenceTrigger) Observe(obs ...WriteObserver) {
	t.observers = append(t.observers, obs...)
}

// Handle processes one task write. It works from the snapshot taken at write
// time, so later edits of the source task do not change the outcome. It
// returns the inserted task, or nil when the write does not qualify or the
// occurrence already exists.
func (t *RecurrenceTrigger) Handle(ctx context.Context, event model.TaskEvent) (*model.Task, error) {
	if !event.Completes() {
		return nil, nil
	}
	source := event.Snapshot
	if !source.Repeats() {
		return nil, nil
	}
	if source.CompletedAt == nil || source.CompletedAt.IsZero() {
		log.Printf("[warn] trigger: task %s completed without a completion time, not regenerated", source.ID)
		return nil, nil
	}

	next := NextOccurrence(source, t.fallbackZone)
	ev, created, err := t.taskRepo.CreateIfAbsent(ctx, &next)
	if err != nil {
		log.Printf("[error] trigger: regenerate task %s: %v", source.ID, err)
		return nil, fmt.Errorf("regenerate task %s: %w", source.ID, err)
	}
	if !created {
		log.Printf("[info] trigger: task %s already regenerated as %s", source.ID, next.ID)
		return nil, nil
	}

	log.Printf("[info] trigger: task %s regenerated as %s due %s", source.ID, next.ID, next.DueDate)
	t.observers.notify(ctx, ev)
	return &next, nil
}

// NextOccurrence copies source into the task that follows it: same fields,
// new deterministic id, next due date, back in to-do with the lifecycle
// timestamps cleared.
func NextOccurrence(source model.Task, fallbackZone string) model.Task {
	zone := source.TimeZone
	if zone == "" {
		zone = fallbackZone
	}
	due := recurrence.NextDueDate(*source.CompletedAt, source.RepeatNumber, source.RepeatUnit, zone)

	next := source
	next.ID = RegeneratedID(source.ID, *source.CompletedAt)
	next.SourceTaskID = source.ID
	next.DueDate = &due
	next.Status = model.StatusToDo
	next.StartedAt = nil
	next.CompletedAt = nil
	next.Categories = append([]string(nil), source.Categories...)
	return next
}
