package downloader

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"yandl/pkg/logger"
	"yandl/pkg/planner"
	"yandl/pkg/ratelimit"
)

// DownloadResult represents the result of a download task
type DownloadResult struct {
	Task     planner.Task
	Success  bool
	Error    error
	Duration time.Duration
	Size     int64
	// Removed is set when the task's superseded file was deleted
	Removed bool
}

// BinaryFetcher streams remote files
type BinaryFetcher interface {
	FetchBinary(ctx context.Context, url string) (io.ReadCloser, error)
}

// FileStore persists downloaded files
type FileStore interface {
	Save(r io.Reader, name string) (int64, error)
	Remove(name string) error
}

// WorkerPool manages concurrent download workers. A pool is used for one
// batch: Start, Submit every task, then Stop.
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan planner.Task
	resultQueue chan DownloadResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	client      BinaryFetcher
	store       FileStore
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
}

// NewWorkerPool creates a new download worker pool
func NewWorkerPool(
	numWorkers int,
	client BinaryFetcher,
	store FileStore,
	rateLimiter ratelimit.Limiter,
	log logger.Logger,
) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if numWorkers < 1 {
		numWorkers = 1
	}
	if rateLimiter == nil {
		rateLimiter = ratelimit.Unlimited{}
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan planner.Task, numWorkers*2), // Buffer size = 2x workers
		resultQueue: make(chan DownloadResult, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		client:      client,
		store:       store,
		rateLimiter: rateLimiter,
		logger:      log.WithField("component", "downloader"),
	}
}

// Start initializes and starts all workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop waits for queued tasks to finish and closes the results channel
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("Worker pool stopped")
}

// Submit adds a new download task to the queue
func (wp *WorkerPool) Submit(task planner.Task) error {
	select {
	case wp.jobQueue <- task:
		wp.logger.DebugWithFields("Task submitted to queue", map[string]interface{}{
			"filename": task.Filename,
			"kind":     task.Kind,
		})
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the result channel for consuming download results. It
// must be drained until closed.
func (wp *WorkerPool) Results() <-chan DownloadResult {
	return wp.resultQueue
}

// worker is the main worker routine
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for task := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			wp.logger.DebugWithFields("Worker stopping - context cancelled", map[string]interface{}{
				"worker_id": id,
			})
			return
		default:
		}

		// Finished tasks are reported even after cancellation.
		wp.resultQueue <- wp.processJob(task, id)
	}
}

// processJob downloads one task and removes the file it supersedes
func (wp *WorkerPool) processJob(task planner.Task, workerID int) DownloadResult {
	start := time.Now()
	result := DownloadResult{Task: task}

	if !wp.rateLimiter.Allow() {
		wp.logger.DebugWithFields("Worker waiting for rate limit", map[string]interface{}{
			"worker_id": workerID,
			"filename":  task.Filename,
		})
		if err := wp.rateLimiter.Wait(wp.ctx); err != nil {
			result.Error = fmt.Errorf("rate limiter: %w", err)
			result.Duration = time.Since(start)
			return result
		}
	}

	body, err := wp.client.FetchBinary(wp.ctx, task.URL)
	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("Worker failed to download image", map[string]interface{}{
			"worker_id": workerID,
			"url":       task.URL,
			"error":     err.Error(),
			"duration":  result.Duration,
		})
		return result
	}
	defer body.Close()

	size, err := wp.store.Save(body, task.Filename)
	result.Size = size
	if err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("Worker failed to save image", map[string]interface{}{
			"worker_id": workerID,
			"filename":  task.Filename,
			"error":     err.Error(),
			"size":      size,
		})
		return result
	}

	result.Success = true

	if task.Supersedes != "" {
		if err := wp.store.Remove(task.Supersedes); err != nil {
			wp.logger.WarnWithFields("Failed to remove superseded image", map[string]interface{}{
				"filename": task.Supersedes,
				"error":    err.Error(),
			})
		} else {
			result.Removed = true
		}
	}

	result.Duration = time.Since(start)
	wp.logger.DebugWithFields("Worker completed task successfully", map[string]interface{}{
		"worker_id": workerID,
		"filename":  task.Filename,
		"size":      size,
		"duration":  result.Duration,
	})

	return result
}
