package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// DefaultMaxRetries is applied to jobs enqueued without an override.
	DefaultMaxRetries = 3
	// jobKeyTTL keeps finished job records around for inspection.
	jobKeyTTL = 24 * time.Hour
)

// RedisJob represents a background job in the Redis transport.
type RedisJob struct {
	ID         string          `json:"id"`
	Queue      string          `json:"queue"`
	Payload    json.RawMessage `json:"payload"`
	Status     JobStatus       `json:"status"`
	RetryCount int             `json:"retry_count"`
	MaxRetries int             `json:"max_retries"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	RunAt      time.Time       `json:"run_at"`
	Error      string          `json:"error,omitempty"`
}

// ConvertToJob converts a RedisJob to a queue Job
func (r *RedisJob) ConvertToJob() *Job {
	id, _ := uuid.Parse(r.ID)
	return &Job{
		ID:         id,
		Type:       JobType(r.Queue),
		Payload:    r.Payload,
		Status:     r.Status,
		RetryCount: r.RetryCount,
		MaxRetries: r.MaxRetries,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// RedisEnqueueOption defines options for enqueueing jobs
type RedisEnqueueOption func(*RedisJob)

// WithMaxRetries sets the maximum number of retries for a job
func WithMaxRetries(maxRetries int) RedisEnqueueOption {
	return func(j *RedisJob) {
		j.MaxRetries = maxRetries
	}
}

// WithJobID sets a specific job ID, letting callers deduplicate work.
func WithJobID(id string) RedisEnqueueOption {
	return func(j *RedisJob) {
		j.ID = id
	}
}

// RedisQueue is the Redis transport for background jobs, mirrored
// write-through into the durable jobs table. Jobs live in one list per
// job type plus a sorted set for delayed retries.
type RedisQueue struct {
	client *redis.Client
	db     *gorm.DB
	ctx    context.Context
}

// NewRedisQueue creates a new Redis-backed queue
func NewRedisQueue(client *redis.Client, db *gorm.DB) *RedisQueue {
	return &RedisQueue{
		client: client,
		db:     db,
		ctx:    context.Background(),
	}
}

func queueKey(queueName string) string   { return fmt.Sprintf("queue:%s", queueName) }
func delayedKey(queueName string) string { return fmt.Sprintf("queue:%s:delayed", queueName) }
func jobKey(jobID string) string         { return fmt.Sprintf("job:%s", jobID) }

// Enqueue pushes a job onto the queue.
func (q *RedisQueue) Enqueue(queueName string, payload interface{}, opts ...RedisEnqueueOption) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	job := &RedisJob{
		ID:         uuid.New().String(),
		Queue:      queueName,
		Payload:    payloadBytes,
		Status:     JobStatusPending,
		MaxRetries: DefaultMaxRetries,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
		RunAt:      time.Now(),
	}
	for _, opt := range opts {
		opt(job)
	}

	if err := q.saveJob(job); err != nil {
		return "", err
	}
	q.mirrorCreate(job)

	if err := q.client.LPush(q.ctx, queueKey(queueName), job.ID).Err(); err != nil {
		return "", fmt.Errorf("failed to push job: %w", err)
	}

	return job.ID, nil
}

// EnqueueIn schedules a job to run after a delay.
func (q *RedisQueue) EnqueueIn(queueName string, payload interface{}, delay time.Duration, opts ...RedisEnqueueOption) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	job := &RedisJob{
		ID:         uuid.New().String(),
		Queue:      queueName,
		Payload:    payloadBytes,
		Status:     JobStatusPending,
		MaxRetries: DefaultMaxRetries,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
		RunAt:      time.Now().Add(delay),
	}
	for _, opt := range opts {
		opt(job)
	}

	if err := q.saveJob(job); err != nil {
		return "", err
	}
	q.mirrorCreate(job)

	err = q.client.ZAdd(q.ctx, delayedKey(queueName), &redis.Z{
		Score:  float64(job.RunAt.Unix()),
		Member: job.ID,
	}).Err()
	if err != nil {
		return "", fmt.Errorf("failed to schedule job: %w", err)
	}

	return job.ID, nil
}

// Dequeue pops the next ready job, blocking up to timeout. Returns nil
// without error when nothing is ready.
func (q *RedisQueue) Dequeue(queueName string, timeout time.Duration) (*RedisJob, error) {
	q.promoteDelayed(queueName)

	result, err := q.client.BRPop(q.ctx, timeout, queueKey(queueName)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop job: %w", err)
	}

	jobID := result[1]
	job, err := q.getJob(jobID)
	if err != nil {
		return nil, err
	}

	job.Status = JobStatusProcessing
	job.UpdatedAt = time.Now()
	if err := q.saveJob(job); err != nil {
		return nil, err
	}
	q.mirrorUpdate(job)

	return job, nil
}

// Complete marks a job as completed.
func (q *RedisQueue) Complete(jobID string) error {
	job, err := q.getJob(jobID)
	if err != nil {
		return err
	}
	job.Status = JobStatusCompleted
	job.UpdatedAt = time.Now()
	if err := q.saveJob(job); err != nil {
		return err
	}
	q.mirrorUpdate(job)
	return nil
}

// Fail marks a job as failed, scheduling a retry with backoff while
// attempts remain.
func (q *RedisQueue) Fail(job *RedisJob, jobErr error) error {
	job.Error = jobErr.Error()
	job.RetryCount++
	job.UpdatedAt = time.Now()

	if job.RetryCount > job.MaxRetries {
		job.Status = JobStatusFailed
		log.Printf("Job %s on queue %s permanently failed after %d attempts: %v",
			job.ID, job.Queue, job.RetryCount, jobErr)
		if err := q.saveJob(job); err != nil {
			return err
		}
		q.mirrorUpdate(job)
		return nil
	}

	job.Status = JobStatusPending
	delay := calculateBackoff(job.RetryCount)
	job.RunAt = time.Now().Add(delay)
	if err := q.saveJob(job); err != nil {
		return err
	}
	q.mirrorUpdate(job)

	return q.client.ZAdd(q.ctx, delayedKey(job.Queue), &redis.Z{
		Score:  float64(job.RunAt.Unix()),
		Member: job.ID,
	}).Err()
}

// promoteDelayed moves due delayed jobs onto the ready list.
func (q *RedisQueue) promoteDelayed(queueName string) {
	now := fmt.Sprintf("%d", time.Now().Unix())
	ids, err := q.client.ZRangeByScore(q.ctx, delayedKey(queueName), &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil || len(ids) == 0 {
		return
	}

	for _, id := range ids {
		if err := q.client.LPush(q.ctx, queueKey(queueName), id).Err(); err != nil {
			log.Printf("Failed to promote delayed job %s: %v", id, err)
			continue
		}
		q.client.ZRem(q.ctx, delayedKey(queueName), id)
	}
}

// mirrorCreate inserts the job into the durable jobs table. Mirror
// failures are logged, not returned: the queue keeps moving and the
// recovery processor tolerates missing rows.
func (q *RedisQueue) mirrorCreate(job *RedisJob) {
	if q.db == nil {
		return
	}
	record := job.ConvertToJob()
	if record.ID == uuid.Nil {
		return
	}
	// DoNothing keeps requeues under an existing ID from colliding.
	if err := q.db.Clauses(clause.OnConflict{DoNothing: true}).Create(record).Error; err != nil {
		log.Printf("Failed to mirror job %s to database: %v", job.ID, err)
	}
}

// mirrorUpdate reflects a status change into the jobs table.
func (q *RedisQueue) mirrorUpdate(job *RedisJob) {
	if q.db == nil {
		return
	}
	updates := map[string]interface{}{
		"status":      job.Status,
		"retry_count": job.RetryCount,
		"updated_at":  time.Now(),
	}
	if job.Error != "" {
		updates["error"] = job.Error
	}
	if job.Status == JobStatusPending && job.RetryCount > 0 {
		updates["next_retry"] = job.RunAt
	}
	if err := q.db.Model(&Job{}).Where("id = ?", job.ID).Updates(updates).Error; err != nil {
		log.Printf("Failed to mirror job %s update to database: %v", job.ID, err)
	}
}

// Stats reports queue depth from Redis and terminal counts from the
// durable mirror.
func (q *RedisQueue) Stats(queueName string) (QueueStats, error) {
	stats := QueueStats{Queue: queueName}

	waiting, err := q.client.LLen(q.ctx, queueKey(queueName)).Result()
	if err != nil {
		return stats, fmt.Errorf("failed to read queue length: %w", err)
	}
	stats.Waiting = int(waiting)

	delayed, err := q.client.ZCard(q.ctx, delayedKey(queueName)).Result()
	if err != nil {
		return stats, fmt.Errorf("failed to read delayed set: %w", err)
	}
	stats.Delayed = int(delayed)

	if q.db != nil {
		for status, dest := range map[JobStatus]*int{
			JobStatusProcessing: &stats.Processing,
			JobStatusFailed:     &stats.Failed,
			JobStatusCompleted:  &stats.Completed,
		} {
			var count int64
			if err := q.db.Model(&Job{}).
				Where("type = ? AND status = ?", queueName, status).
				Count(&count).Error; err != nil {
				return stats, fmt.Errorf("failed to count %s jobs: %w", status, err)
			}
			*dest = int(count)
		}
	}

	return stats, nil
}

func (q *RedisQueue) saveJob(job *RedisJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return q.client.Set(q.ctx, jobKey(job.ID), data, jobKeyTTL).Err()
}

func (q *RedisQueue) getJob(jobID string) (*RedisJob, error) {
	data, err := q.client.Get(q.ctx, jobKey(jobID)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	var job RedisJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", jobID, err)
	}
	return &job, nil
}
