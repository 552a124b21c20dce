package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	defaultMaxRetries   = 3
	defaultBaseDelay    = 5 * time.Second
	defaultQueueTimeout = 5 * time.Second
)

// Queue is the task queue interface
type Queue interface {
	Publish(ctx context.Context, task *Task) error
	Subscribe(ctx context.Context, handler func(*Task) error) error
	Close() error
}

// RedisQueue implements Queue using Redis: a list for immediate tasks, a
// sorted set for delayed ones, and a processing list so a crashed consumer
// never silently drops a task.
type RedisQueue struct {
	client          *redis.Client
	mainQueue       string
	delayedQueue    string
	processingQueue string
	dlq             string
	retryManager    *RetryManager
	dlqHandler      DLQHandler
	config          *RedisQueueConfig
	stopChan        chan struct{}
	closeOnce       sync.Once
	wg              sync.WaitGroup
}

// RedisQueueConfig contains configuration for RedisQueue
type RedisQueueConfig struct {
	Addr     string
	Password string
	DB       int

	MainQueue       string
	DelayedQueue    string
	ProcessingQueue string
	DLQ             string

	MaxRetries   int
	BaseDelay    time.Duration
	QueueTimeout time.Duration
	EnableDLQ    bool
}

// DefaultRedisQueueConfig returns default configuration
func DefaultRedisQueueConfig() *RedisQueueConfig {
	return &RedisQueueConfig{
		Addr:            "localhost:6379",
		Password:        "",
		DB:              0,
		MainQueue:       "ticketforge:tasks",
		DelayedQueue:    "ticketforge:tasks:delayed",
		ProcessingQueue: "ticketforge:tasks:processing",
		DLQ:             "ticketforge:dlq",
		MaxRetries:      defaultMaxRetries,
		BaseDelay:       defaultBaseDelay,
		QueueTimeout:    defaultQueueTimeout,
		EnableDLQ:       true,
	}
}

// NewRedisQueue creates a new RedisQueue instance
func NewRedisQueue(cfg *RedisQueueConfig, retryManager *RetryManager, dlqHandler DLQHandler) (*RedisQueue, error) {
	if cfg == nil {
		cfg = DefaultRedisQueueConfig()
	}
	if cfg.MainQueue == "" {
		defaults := DefaultRedisQueueConfig()
		cfg.MainQueue = defaults.MainQueue
		cfg.DelayedQueue = defaults.DelayedQueue
		cfg.ProcessingQueue = defaults.ProcessingQueue
		cfg.DLQ = defaults.DLQ
	}
	if cfg.QueueTimeout == 0 {
		cfg.QueueTimeout = defaultQueueTimeout
	}

	if retryManager == nil {
		retryManager = NewRetryManager(cfg.MaxRetries, cfg.BaseDelay)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  -1, // BRPopLPush blocks longer than any fixed read timeout
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	if dlqHandler == nil && cfg.EnableDLQ {
		dlqHandler = NewDefaultDLQHandler(client, cfg.DLQ)
	}

	queue := &RedisQueue{
		client:          client,
		mainQueue:       cfg.MainQueue,
		delayedQueue:    cfg.DelayedQueue,
		processingQueue: cfg.ProcessingQueue,
		dlq:             cfg.DLQ,
		retryManager:    retryManager,
		dlqHandler:      dlqHandler,
		config:          cfg,
		stopChan:        make(chan struct{}),
	}

	log.Printf("RedisQueue initialized: main=%s, delayed=%s, dlq=%s",
		cfg.MainQueue, cfg.DelayedQueue, cfg.DLQ)

	return queue, nil
}

// Publish sends a task to the queue
func (r *RedisQueue) Publish(ctx context.Context, task *Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if err := task.Validate(); err != nil {
		return fmt.Errorf("invalid task: %v", err)
	}
	if task.MaxRetries == 0 {
		task.MaxRetries = r.config.MaxRetries
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}

	taskData, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %v", err)
	}

	// Delayed tasks wait in a sorted set keyed by execution time.
	if !task.ExecuteAt.IsZero() && task.ExecuteAt.After(time.Now()) {
		score := float64(task.ExecuteAt.UnixNano()) / 1e9
		if err := r.client.ZAdd(ctx, r.delayedQueue, &redis.Z{
			Score:  score,
			Member: taskData,
		}).Err(); err != nil {
			return fmt.Errorf("failed to publish delayed task: %v", err)
		}
		return nil
	}

	if err := r.client.LPush(ctx, r.mainQueue, taskData).Err(); err != nil {
		return fmt.Errorf("failed to publish task: %v", err)
	}
	return nil
}

// Subscribe starts consuming tasks from the queue
func (r *RedisQueue) Subscribe(ctx context.Context, handler func(*Task) error) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	r.wg.Add(2)
	go r.processMainQueue(ctx, handler)
	go r.processDelayedTasks(ctx)

	log.Println("RedisQueue subscriber started")
	return nil
}

// processMainQueue consumes tasks from the main queue
func (r *RedisQueue) processMainQueue(ctx context.Context, handler func(*Task) error) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			log.Println("Main queue processor stopped by context")
			return
		case <-r.stopChan:
			log.Println("Main queue processor stopped")
			return
		default:
			if err := r.processNext(ctx, handler); err != nil {
				log.Printf("Error processing task: %v", err)
				time.Sleep(time.Second) // Backoff on error
			}
		}
	}
}

// processNext moves one task into the processing queue and executes it
func (r *RedisQueue) processNext(ctx context.Context, handler func(*Task) error) error {
	taskData, err := r.client.BRPopLPush(ctx, r.mainQueue, r.processingQueue, r.config.QueueTimeout).Result()
	if err == redis.Nil {
		return nil // Timeout, no tasks
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to move task to processing queue: %v", err)
	}

	var task Task
	if err := json.Unmarshal([]byte(taskData), &task); err != nil {
		log.Printf("Failed to unmarshal task: %v", err)
		r.removeFromProcessing(ctx, taskData)
		return nil
	}

	if err := r.executeWithRetry(ctx, &task, handler); err != nil {
		log.Printf("Task %s failed after %d attempts: %v", task.ID, task.Attempts, err)
		if r.dlqHandler != nil {
			r.dlqHandler.HandleFailedTask(&task, err)
		}
	}

	r.removeFromProcessing(ctx, taskData)
	return nil
}

// executeWithRetry runs the handler, rescheduling the task with backoff on
// retryable failure
func (r *RedisQueue) executeWithRetry(ctx context.Context, task *Task, handler func(*Task) error) error {
	task.Attempts++

	err := handler(task)
	if err == nil {
		return nil
	}

	retry, delay := r.retryManager.ShouldRetry(task, err)
	if !retry {
		return err
	}

	task.ExecuteAt = time.Now().Add(delay)
	if pubErr := r.Publish(ctx, task); pubErr != nil {
		return fmt.Errorf("handler failed (%v) and reschedule failed: %v", err, pubErr)
	}

	log.Printf("Task %s rescheduled in %s (attempt %d/%d)", task.ID, delay, task.Attempts, task.MaxRetries)
	return nil
}

func (r *RedisQueue) removeFromProcessing(ctx context.Context, taskData string) {
	if err := r.client.LRem(ctx, r.processingQueue, 1, taskData).Err(); err != nil {
		log.Printf("Failed to remove task from processing queue: %v", err)
	}
}

// processDelayedTasks promotes due tasks from the delayed set to the main
// queue
func (r *RedisQueue) processDelayedTasks(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.promoteDueTasks(ctx)
		}
	}
}

func (r *RedisQueue) promoteDueTasks(ctx context.Context) {
	now := float64(time.Now().UnixNano()) / 1e9

	items, err := r.client.ZRangeByScore(ctx, r.delayedQueue, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%f", now),
		Count: 100,
	}).Result()
	if err != nil || len(items) == 0 {
		return
	}

	pipe := r.client.Pipeline()
	for _, item := range items {
		pipe.LPush(ctx, r.mainQueue, item)
		pipe.ZRem(ctx, r.delayedQueue, item)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("Failed to promote delayed tasks: %v", err)
	}
}

// Close stops the queue processors and closes the Redis connection
func (r *RedisQueue) Close() error {
	r.closeOnce.Do(func() {
		close(r.stopChan)
	})
	r.wg.Wait()
	return r.client.Close()
}
