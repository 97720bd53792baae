package service

import (
	"context"
	"time"

	"protaskinate/internal/board"
)

// BoardService runs the read pipeline: load the user's tasks, then filter,
// classify, lay out or summarize them in memory.
type BoardService struct {
	tasks *TaskService
}

func NewBoardService(tasks *TaskService) *BoardService {
	return &BoardService{tasks: tasks}
}

// Board returns the kanban columns for userID. now decides what "today" is.
func (s *BoardService) Board(ctx context.Context, userID string, criteria board.Criteria, now time.Time) (board.Buckets, error) {
	tasks, err := s.tasks.ListTasks(ctx, userID)
	if err != nil {
		return board.Buckets{}, err
	}
	return board.Classify(board.Filter(tasks, criteria, now)), nil
}

// Calendar returns the month grid for userID.
func (s *BoardService) Calendar(ctx context.Context, userID string, year int, month time.Month, now time.Time) (board.Month, error) {
	tasks, err := s.tasks.ListTasks(ctx, userID)
	if err != nil {
		return board.Month{}, err
	}
	return board.CalendarMonth(tasks, year, month, modelToday(now)), nil
}

// Stats returns the dashboard counters for userID.
func (s *BoardService) Stats(ctx context.Context, userID string, now time.Time) (board.Stats, error) {
	tasks, err := s.tasks.ListTasks(ctx, userID)
	if err != nil {
		return board.Stats{}, err
	}
	return board.Summarize(tasks, now), nil
}
