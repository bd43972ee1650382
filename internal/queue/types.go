package queue

import (
	"math"
	"math/rand"
	"time"
)

// QueueStats represents statistics for a queue
type QueueStats struct {
	Queue      string `json:"queue"`
	Waiting    int    `json:"waiting"`
	Processing int    `json:"processing"`
	Delayed    int    `json:"delayed"`
	Failed     int    `json:"failed"`
	Completed  int    `json:"completed"`
}

// EnqueueOptions represents options for enqueueing a job
type EnqueueOptions struct {
	Delay    time.Duration
	MaxRetry int
}

// EnqueueOption is a function that modifies EnqueueOptions
type EnqueueOption func(*EnqueueOptions)

// WithDelay holds a job back for the given duration before it becomes
// eligible for dequeue.
func WithDelay(delay time.Duration) EnqueueOption {
	return func(o *EnqueueOptions) {
		o.Delay = delay
	}
}

// WithMaxRetry sets the maximum number of retries for a job
func WithMaxRetry(maxRetry int) EnqueueOption {
	return func(o *EnqueueOptions) {
		o.MaxRetry = maxRetry
	}
}

// calculateBackoff calculates the backoff duration for a retry.
// Exponential from a 5 second base, capped at an hour, with ±20%
// jitter so retry storms spread out.
func calculateBackoff(retry int) time.Duration {
	base := 5.0
	max := 3600.0

	seconds := math.Min(max, base*math.Pow(2, float64(retry)))

	jitter := seconds * 0.2
	seconds = seconds - jitter + (rand.Float64() * jitter * 2)

	return time.Duration(seconds) * time.Second
}
