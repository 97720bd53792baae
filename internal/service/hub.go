package service

import (
	"context"
	"log"
	"sync"

	"protaskinate/internal/model"
	"protaskinate/internal/repository"
)

// Hub keeps live views of each user's task collection. Subscribers receive
// the full collection on subscribe and after every write; a slow subscriber
// only ever sees the latest collection.
type Hub struct {
	taskRepo *repository.TaskRepository
	mu       sync.Mutex
	subs     map[string]map[*subscription]struct{}
}

type subscription struct {
	ch   chan []model.Task
	once sync.Once
}

func NewHub(taskRepo *repository.TaskRepository) *Hub {
	return &Hub{taskRepo: taskRepo, subs: make(map[string]map[*subscription]struct{})}
}

// Subscribe starts a live view of userID's tasks. The returned function
// releases it and closes the channel; calling it more than once is fine.
func (h *Hub) Subscribe(ctx context.Context, userID string) (<-chan []model.Task, func(), error) {
	sub := h.register(userID)
	unsubscribe := func() {
		sub.once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], sub)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			close(sub.ch)
			h.mu.Unlock()
		})
	}

	if err := h.prime(ctx, userID, sub); err != nil {
		unsubscribe()
		return nil, nil, err
	}
	return sub.ch, unsubscribe, nil
}

// register adds a subscription before the first read, so a write landing
// while the snapshot loads is still published to it.
func (h *Hub) register(userID string) *subscription {
	sub := &subscription{ch: make(chan []model.Task, 1)}
	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// prime loads the initial collection. A collection published since
// register was read after that write committed and is kept instead.
func (h *Hub) prime(ctx context.Context, userID string, sub *subscription) error {
	tasks, err := h.taskRepo.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[userID][sub]; !ok {
		return nil
	}
	select {
	case sub.ch <- tasks:
	default:
	}
	return nil
}

// Subscribers returns the number of live views of userID's tasks.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

// TaskWritten pushes the owner's fresh collection to every subscriber.
func (h *Hub) TaskWritten(ctx context.Context, event model.TaskEvent) {
	if h.Subscribers(event.UserID) == 0 {
		return
	}
	tasks, err := h.taskRepo.ListByUser(ctx, event.UserID)
	if err != nil {
		log.Printf("[error] hub: reload tasks for user=%s: %v", event.UserID, err)
		return
	}
	h.Publish(event.UserID, tasks)
}

// Publish hands tasks to every subscriber of userID.
func (h *Hub) Publish(userID string, tasks []model.Task) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[userID] {
		// Replace an unread collection rather than block the writer.
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- tasks
	}
}
