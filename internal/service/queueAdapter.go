package service

import (
	"context"

	"github.com/ticketforge/ticketforge/pkg/queue"
)

// QueueAdapter adapts queue.Queue to the TaskPublisher interface.
type QueueAdapter struct {
	queue queue.Queue
}

func NewQueueAdapter(q queue.Queue) *QueueAdapter {
	return &QueueAdapter{queue: q}
}

// Publish converts a service.Task into a queue.Task and hands it off.
func (a *QueueAdapter) Publish(ctx context.Context, task *Task) error {
	if a.queue == nil {
		return nil
	}

	queueTask := &queue.Task{
		ID:         task.ID,
		Type:       queue.TaskType(task.Type),
		Data:       task.Data,
		ExecuteAt:  task.ExecuteAt,
		MaxRetries: task.MaxRetries,
		Attempts:   task.Attempts,
	}

	return a.queue.Publish(ctx, queueTask)
}
