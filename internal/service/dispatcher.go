package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"protaskinate/internal/model"
	"protaskinate/internal/repository"
)

const (
	dispatchBatch       = 50
	dispatchMaxAttempts = 5
)

// TriggerDispatcher delivers recorded task writes to the recurrence trigger
// outside the request that made them. A write wakes it; a periodic sweep
// picks up anything a wake missed and retries failures.
type TriggerDispatcher struct {
	eventRepo *repository.EventRepository
	trigger   *RecurrenceTrigger
	wake      chan struct{}
	mu        sync.Mutex
	now       func() time.Time
}

func NewTriggerDispatcher(eventRepo *repository.EventRepository, trigger *RecurrenceTrigger) *TriggerDispatcher {
	return &TriggerDispatcher{
		eventRepo: eventRepo,
		trigger:   trigger,
		wake:      make(chan struct{}, 1),
		now:       time.Now,
	}
}

// TaskWritten wakes the dispatcher without waiting for it.
func (d *TriggerDispatcher) TaskWritten(_ context.Context, event model.TaskEvent) {
	if !event.Completes() {
		return
	}
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run drains on every wake until ctx is cancelled.
func (d *TriggerDispatcher) Run(ctx context.Context) error {
	log.Println("[info] trigger dispatcher started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.wake:
			if _, err := d.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[error] trigger dispatcher: %v", err)
			}
		}
	}
}

// Drain processes pending events until none are left and returns how many
// were handled successfully. A failing event is recorded and left for the
// next sweep; it never stops the rest of the batch.
func (d *TriggerDispatcher) Drain(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	handled := 0
	var cursor uint
	for {
		events, err := d.eventRepo.Pending(ctx, cursor, dispatchBatch, dispatchMaxAttempts)
		if err != nil {
			return handled, err
		}
		if len(events) == 0 {
			return handled, nil
		}
		for _, event := range events {
			cursor = event.ID
			if err := ctx.Err(); err != nil {
				return handled, err
			}
			if _, err := d.trigger.Handle(ctx, event); err != nil {
				if markErr := d.eventRepo.MarkFailed(ctx, event.ID, err); markErr != nil {
					log.Printf("[error] trigger dispatcher: event %d: %v", event.ID, markErr)
				}
				continue
			}
			if err := d.eventRepo.MarkProcessed(ctx, event.ID, d.now()); err != nil {
				// The event will be replayed; the trigger is idempotent.
				log.Printf("[error] trigger dispatcher: event %d: %v", event.ID, err)
				continue
			}
			handled++
		}
	}
}
