package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobType defines the type of job
type JobType string

const (
	// JobTypeRecalculateMultiplier refreshes one profile's activity
	// multiplier, optionally fanning out to its chain neighbours.
	JobTypeRecalculateMultiplier JobType = "recalculate_multiplier"
	// JobTypeDistributeCommissions walks a referral chain and posts
	// commission ledger entries for one qualifying event.
	JobTypeDistributeCommissions JobType = "distribute_commissions"
	// JobTypeDecaySweep re-derives multipliers for profiles whose
	// stored value has gone stale through inactivity.
	JobTypeDecaySweep JobType = "multiplier_decay_sweep"
	// JobTypeOverdueReport surfaces pending assignments past due date.
	JobTypeOverdueReport JobType = "overdue_report"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job represents a background job. Every job enqueued through the
// Redis transport is mirrored into the jobs table, so the table is the
// durable record and the recovery processor can re-enqueue anything
// Redis lost.
type Job struct {
	ID         uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Type       JobType         `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Status     JobStatus       `json:"status"`
	RetryCount int             `json:"retry_count" gorm:"default:0"`
	MaxRetries int             `json:"max_retries" gorm:"default:3"`
	NextRetry  *time.Time      `json:"next_retry,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Error      string          `json:"error,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
}

// QueueInterface defines the interface for job queue operations
type QueueInterface interface {
	RegisterHandler(jobType JobType, handler JobHandler)
	Enqueue(job *Job, opts ...EnqueueOption) error
}

// JobHandler is a function that processes a job
type JobHandler func(ctx context.Context, job Job) (interface{}, error)
