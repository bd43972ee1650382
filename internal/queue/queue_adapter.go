package queue

import (
	"fmt"
)

// QueueAdapter adapts RedisQueue to implement QueueInterface
type QueueAdapter struct {
	redisQueue *RedisQueue
	handlers   map[JobType]JobHandler
}

// NewQueueAdapter creates a new QueueAdapter
func NewQueueAdapter(redisQueue *RedisQueue) *QueueAdapter {
	return &QueueAdapter{
		redisQueue: redisQueue,
		handlers:   make(map[JobType]JobHandler),
	}
}

// RegisterHandler registers a handler for a job type
func (a *QueueAdapter) RegisterHandler(jobType JobType, handler JobHandler) {
	a.handlers[jobType] = handler
}

// Handler returns the registered handler for a job type, if any.
func (a *QueueAdapter) Handler(jobType JobType) (JobHandler, bool) {
	h, ok := a.handlers[jobType]
	return h, ok
}

// Enqueue adds a job to the queue. The job's payload travels as raw
// JSON so handlers decode the same bytes regardless of transport. A
// delay option routes the job through the delayed set instead of the
// ready list.
func (a *QueueAdapter) Enqueue(job *Job, opts ...EnqueueOption) error {
	if _, ok := a.handlers[job.Type]; !ok {
		return fmt.Errorf("no handler registered for job type %s", job.Type)
	}

	options := &EnqueueOptions{MaxRetry: job.MaxRetries}
	for _, opt := range opts {
		opt(options)
	}

	redisOpts := []RedisEnqueueOption{}
	if options.MaxRetry > 0 {
		redisOpts = append(redisOpts, WithMaxRetries(options.MaxRetry))
	}

	if options.Delay > 0 {
		_, err := a.redisQueue.EnqueueIn(string(job.Type), job.Payload, options.Delay, redisOpts...)
		return err
	}
	_, err := a.redisQueue.Enqueue(string(job.Type), job.Payload, redisOpts...)
	return err
}
