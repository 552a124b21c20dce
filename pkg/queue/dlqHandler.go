package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// DLQHandler handles failed tasks by moving them to a Dead Letter Queue
type DLQHandler interface {
	HandleFailedTask(task *Task, err error)
	GetFailedTasks(ctx context.Context, limit int) ([]*FailedTask, error)
	RequeueFailedTask(ctx context.Context, taskID string, q Queue) error
}

// DefaultDLQHandler is the default implementation of DLQHandler
type DefaultDLQHandler struct {
	client *redis.Client
	dlq    string
}

// FailedTask represents a task that failed execution
type FailedTask struct {
	Task     *Task     `json:"task"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
	Attempts int       `json:"attempts"`
}

// NewDefaultDLQHandler creates a new DefaultDLQHandler
func NewDefaultDLQHandler(client *redis.Client, dlq string) *DefaultDLQHandler {
	return &DefaultDLQHandler{
		client: client,
		dlq:    dlq,
	}
}

// HandleFailedTask stores a failed task in the DLQ
func (d *DefaultDLQHandler) HandleFailedTask(task *Task, err error) {
	failedTask := &FailedTask{
		Task:     task,
		Error:    err.Error(),
		FailedAt: time.Now(),
		Attempts: task.Attempts,
	}

	taskData, marshalErr := json.Marshal(failedTask)
	if marshalErr != nil {
		log.Printf("Failed to marshal failed task: %v", marshalErr)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Store in DLQ with timestamp as score for sorting
	score := float64(failedTask.FailedAt.UnixNano()) / 1e9
	if _, redisErr := d.client.ZAdd(ctx, d.dlq, &redis.Z{
		Score:  score,
		Member: taskData,
	}).Result(); redisErr != nil {
		log.Printf("Failed to send task to DLQ: %v", redisErr)
		return
	}

	log.Printf("Task %s moved to DLQ after %d attempts: %v", task.ID, task.Attempts, err)
}

// GetFailedTasks returns the most recent failed tasks
func (d *DefaultDLQHandler) GetFailedTasks(ctx context.Context, limit int) ([]*FailedTask, error) {
	if limit <= 0 {
		limit = 50
	}

	items, err := d.client.ZRevRange(ctx, d.dlq, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read DLQ: %v", err)
	}

	tasks := make([]*FailedTask, 0, len(items))
	for _, item := range items {
		var failed FailedTask
		if err := json.Unmarshal([]byte(item), &failed); err != nil {
			log.Printf("Skipping unreadable DLQ entry: %v", err)
			continue
		}
		tasks = append(tasks, &failed)
	}
	return tasks, nil
}

// RequeueFailedTask re-publishes a failed task and removes it from the DLQ
func (d *DefaultDLQHandler) RequeueFailedTask(ctx context.Context, taskID string, q Queue) error {
	items, err := d.client.ZRange(ctx, d.dlq, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to read DLQ: %v", err)
	}

	for _, item := range items {
		var failed FailedTask
		if err := json.Unmarshal([]byte(item), &failed); err != nil {
			continue
		}
		if failed.Task == nil || failed.Task.ID != taskID {
			continue
		}

		failed.Task.Attempts = 0
		if err := q.Publish(ctx, failed.Task); err != nil {
			return fmt.Errorf("failed to requeue task %s: %v", taskID, err)
		}
		if err := d.client.ZRem(ctx, d.dlq, item).Err(); err != nil {
			return fmt.Errorf("failed to remove task %s from DLQ: %v", taskID, err)
		}
		return nil
	}

	return fmt.Errorf("task %s not found in DLQ", taskID)
}
