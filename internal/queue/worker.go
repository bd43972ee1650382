package queue

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// Worker processes jobs from a single queue
type Worker struct {
	queue      *RedisQueue
	jobType    JobType
	handler    JobHandler
	numWorkers int
	wg         sync.WaitGroup
	quit       chan struct{}
}

// NewWorker creates a new worker
func NewWorker(queue *RedisQueue, jobType JobType, handler JobHandler, numWorkers int) *Worker {
	return &Worker{
		queue:      queue,
		jobType:    jobType,
		handler:    handler,
		numWorkers: numWorkers,
		quit:       make(chan struct{}),
	}
}

// Start starts the worker goroutines
func (w *Worker) Start() {
	log.Printf("Starting %d workers for queue %s", w.numWorkers, w.jobType)

	for i := 0; i < w.numWorkers; i++ {
		w.wg.Add(1)
		go w.process(i)
	}
}

// Stop stops the worker and waits for in-flight jobs to finish
func (w *Worker) Stop() {
	log.Printf("Stopping workers for queue %s", w.jobType)
	close(w.quit)
	w.wg.Wait()
}

// process pulls and runs jobs until the worker is stopped
func (w *Worker) process(workerID int) {
	defer w.wg.Done()

	log.Printf("Worker %d for queue %s started", workerID, w.jobType)

	for {
		select {
		case <-w.quit:
			log.Printf("Worker %d for queue %s stopped", workerID, w.jobType)
			return
		default:
			job, err := w.queue.Dequeue(string(w.jobType), 1*time.Second)
			if err != nil {
				log.Printf("Error dequeueing job: %v", err)
				time.Sleep(1 * time.Second)
				continue
			}

			if job == nil {
				time.Sleep(100 * time.Millisecond)
				continue
			}

			log.Printf("Worker %d processing job %s from queue %s", workerID, job.ID, w.jobType)

			_, err = w.handler(context.Background(), *job.ConvertToJob())
			if err != nil {
				log.Printf("Error processing job %s: %v", job.ID, err)
				if failErr := w.queue.Fail(job, err); failErr != nil {
					log.Printf("Error marking job %s as failed: %v", job.ID, failErr)
				}
				continue
			}

			if err := w.queue.Complete(job.ID); err != nil {
				log.Printf("Error marking job %s as completed: %v", job.ID, err)
			}
		}
	}
}

// WorkerManager manages one worker pool per job type plus the gocron
// scheduler that feeds recurring maintenance jobs into the queue.
type WorkerManager struct {
	queue     *RedisQueue
	workers   map[JobType]*Worker
	scheduler *gocron.Scheduler
	mu        sync.Mutex
}

// NewWorkerManager creates a new worker manager
func NewWorkerManager(queue *RedisQueue) *WorkerManager {
	return &WorkerManager{
		queue:     queue,
		workers:   make(map[JobType]*Worker),
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// RegisterWorker registers a worker pool for a job type
func (m *WorkerManager) RegisterWorker(jobType JobType, handler JobHandler, numWorkers int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.workers[jobType]; exists {
		log.Printf("Worker for queue %s already registered", jobType)
		return
	}

	m.workers[jobType] = NewWorker(m.queue, jobType, handler, numWorkers)
}

// ScheduleRecurring enqueues a job on a fixed interval. The payload is
// marshalled fresh on every tick.
func (m *WorkerManager) ScheduleRecurring(jobType JobType, interval time.Duration, payload func() interface{}) error {
	_, err := m.scheduler.Every(interval).Do(func() {
		if _, err := m.queue.Enqueue(string(jobType), payload()); err != nil {
			log.Printf("Error enqueueing recurring job %s: %v", jobType, err)
		}
	})
	return err
}

// StartAll starts all registered workers and the recurring scheduler
func (m *WorkerManager) StartAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for jobType, worker := range m.workers {
		log.Printf("Starting worker for queue %s", jobType)
		worker.Start()
	}

	m.scheduler.StartAsync()
}

// StopAll stops the scheduler and all registered workers
func (m *WorkerManager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scheduler.Stop()

	for jobType, worker := range m.workers {
		log.Printf("Stopping worker for queue %s", jobType)
		worker.Stop()
	}
}
