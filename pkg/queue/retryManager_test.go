package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldRetry(t *testing.T) {
	rm := NewRetryManager(3, time.Second)

	tests := []struct {
		name      string
		task      *Task
		err       error
		wantRetry bool
	}{
		{
			name:      "transient error retries",
			task:      &Task{Attempts: 1, MaxRetries: 3},
			err:       errors.New("connection refused"),
			wantRetry: true,
		},
		{
			name:      "attempts exhausted",
			task:      &Task{Attempts: 3, MaxRetries: 3},
			err:       errors.New("connection refused"),
			wantRetry: false,
		},
		{
			name:      "sold out never retries",
			task:      &Task{Attempts: 0, MaxRetries: 3},
			err:       errors.New("tickets are sold out"),
			wantRetry: false,
		},
		{
			name:      "not found never retries",
			task:      &Task{Attempts: 0, MaxRetries: 3},
			err:       errors.New("ticket not found"),
			wantRetry: false,
		},
		{
			name:      "nil error never retries",
			task:      &Task{Attempts: 0, MaxRetries: 3},
			err:       nil,
			wantRetry: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retry, delay := rm.ShouldRetry(tt.task, tt.err)
			assert.Equal(t, tt.wantRetry, retry)
			if retry {
				assert.Greater(t, delay, time.Duration(0))
			}
		})
	}
}

func TestBackoffIsBounded(t *testing.T) {
	rm := NewRetryManager(10, time.Second)

	for attempt := 0; attempt < 10; attempt++ {
		delay := rm.calculateBackoff(attempt)
		assert.LessOrEqual(t, delay, rm.maxDelay, "attempt %d", attempt)
		assert.Greater(t, delay, time.Duration(0), "attempt %d", attempt)
	}
}
