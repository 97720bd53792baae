package service

import (
	"context"

	"protaskinate/internal/model"
)

// WriteObserver is told about every committed task write. Implementations
// must return quickly; the writer is usually serving a request.
type WriteObserver interface {
	TaskWritten(ctx context.Context, event model.TaskEvent)
}

type observers []WriteObserver

func (o observers) notify(ctx context.Context, event *model.TaskEvent) {
	if event == nil {
		return
	}
	for _, obs := range o {
		obs.TaskWritten(ctx, *event)
	}
}
