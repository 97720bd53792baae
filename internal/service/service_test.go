package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"protaskinate/internal/model"
	"protaskinate/internal/repository"
)

// wednesday is 2024-06-12 15:00 UTC.
var wednesday = time.Date(2024, time.June, 12, 15, 0, 0, 0, time.UTC)

type fixture struct {
	tasks      *TaskService
	trigger    *RecurrenceTrigger
	dispatcher *TriggerDispatcher
	hub        *Hub
	categories *CategoryService
	users      *UserService
	taskRepo   *repository.TaskRepository
	recorder   *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.NewDB("file:svc_" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	taskRepo := repository.NewTaskRepository(db)
	rec := &recorder{}
	tasks := NewTaskService(taskRepo, rec)
	tasks.now = func() time.Time { return wednesday }
	trigger := NewRecurrenceTrigger(taskRepo, "America/New_York", rec)
	categories := NewCategoryService(repository.NewCategoryRepository(db))
	return &fixture{
		tasks:      tasks,
		trigger:    trigger,
		dispatcher: NewTriggerDispatcher(repository.NewEventRepository(db), trigger),
		hub:        NewHub(taskRepo),
		categories: categories,
		users:      NewUserService(repository.NewUserRepository(db), categories),
		taskRepo:   taskRepo,
		recorder:   rec,
	}
}

// recorder keeps every event it is told about.
type recorder struct {
	mu     sync.Mutex
	events []model.TaskEvent
}

func (r *recorder) TaskWritten(_ context.Context, event model.TaskEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) last(t *testing.T) model.TaskEvent {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		t.Fatal("no events recorded")
	}
	return r.events[len(r.events)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func mustDate(t *testing.T, s string) *model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return &d
}
