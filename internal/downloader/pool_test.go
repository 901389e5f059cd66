package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"yandl/pkg/logger"
	"yandl/pkg/planner"
	"yandl/pkg/progress"
	"yandl/pkg/ratelimit"
)

// MockClient is a mock implementation of the board client
type MockClient struct {
	downloadDelay   time.Duration
	downloadError   error
	failURLs        map[string]bool
	downloadCounter int32
}

func (m *MockClient) FetchBinary(ctx context.Context, url string) (io.ReadCloser, error) {
	atomic.AddInt32(&m.downloadCounter, 1)
	if m.downloadDelay > 0 {
		select {
		case <-time.After(m.downloadDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.downloadError != nil {
		return nil, m.downloadError
	}
	if m.failURLs[url] {
		return nil, fmt.Errorf("404 for %s", url)
	}
	return io.NopCloser(bytes.NewReader([]byte("mock image data"))), nil
}

func (m *MockClient) GetDownloadCount() int {
	return int(atomic.LoadInt32(&m.downloadCounter))
}

// MockStorageManager is a mock implementation of the storage manager
type MockStorageManager struct {
	saved     map[string]bool
	removed   []string
	saveError error
	afterSave func()
	mu        sync.Mutex
}

func NewMockStorageManager() *MockStorageManager {
	return &MockStorageManager{saved: make(map[string]bool)}
}

func (m *MockStorageManager) Save(r io.Reader, name string) (int64, error) {
	if m.saveError != nil {
		return 0, m.saveError
	}
	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return n, err
	}
	m.mu.Lock()
	m.saved[name] = true
	m.mu.Unlock()
	if m.afterSave != nil {
		m.afterSave()
	}
	return n, nil
}

func (m *MockStorageManager) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, name)
	m.removed = append(m.removed, name)
	return nil
}

func (m *MockStorageManager) GetSavedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func makeTasks(n int, kind planner.Kind) []planner.Task {
	tasks := make([]planner.Task, n)
	for i := range tasks {
		tasks[i] = planner.Task{
			URL:       fmt.Sprintf("https://example.com/image%d.jpg", i),
			Directory: "out",
			Filename:  fmt.Sprintf("image%d.jpg", i),
			Kind:      kind,
		}
	}
	return tasks
}

func TestWorkerPoolBasicFunctionality(t *testing.T) {
	mockClient := &MockClient{downloadDelay: 10 * time.Millisecond}
	mockStorage := NewMockStorageManager()
	rateLimiter := ratelimit.NewTokenBucket(100, time.Second, 100)

	pool := NewWorkerPool(3, mockClient, mockStorage, rateLimiter, logger.NewTestLogger())
	pool.Start()

	var results []DownloadResult
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			results = append(results, result)
		}
	}()

	numJobs := 10
	for _, task := range makeTasks(numJobs, planner.KindStandard) {
		if err := pool.Submit(task); err != nil {
			t.Errorf("Failed to submit task %s: %v", task.Filename, err)
		}
	}

	pool.Stop()
	wg.Wait()

	if len(results) != numJobs {
		t.Errorf("Expected %d results, got %d", numJobs, len(results))
	}

	for _, result := range results {
		if !result.Success {
			t.Errorf("Expected %s to succeed: %v", result.Task.Filename, result.Error)
		}
		if result.Size != int64(len("mock image data")) {
			t.Errorf("Unexpected size %d", result.Size)
		}
	}

	if mockClient.GetDownloadCount() != numJobs {
		t.Errorf("Expected %d download calls, got %d", numJobs, mockClient.GetDownloadCount())
	}

	if mockStorage.GetSavedCount() != numJobs {
		t.Errorf("Expected %d saved images, got %d", numJobs, mockStorage.GetSavedCount())
	}
}

func TestWorkerPoolWithErrors(t *testing.T) {
	mockClient := &MockClient{downloadError: fmt.Errorf("download error")}
	mockStorage := NewMockStorageManager()

	pool := NewWorkerPool(2, mockClient, mockStorage, nil, logger.NewTestLogger())
	summary := pool.Run(context.Background(), makeTasks(5, planner.KindStandard), nil)

	if summary.Failed != 5 || summary.Succeeded != 0 {
		t.Errorf("Expected 5 failures, got %+v", summary)
	}
	if len(summary.Failures) != 5 {
		t.Fatalf("Expected 5 recorded failures, got %d", len(summary.Failures))
	}
	for _, f := range summary.Failures {
		if f.Err == nil {
			t.Error("Expected error in failure")
		}
	}
}

func TestWorkerPoolConcurrency(t *testing.T) {
	mockClient := &MockClient{downloadDelay: 100 * time.Millisecond}
	mockStorage := NewMockStorageManager()

	pool := NewWorkerPool(5, mockClient, mockStorage, nil, logger.NewTestLogger())

	startTime := time.Now()
	summary := pool.Run(context.Background(), makeTasks(10, planner.KindStandard), nil)
	elapsed := time.Since(startTime)

	// 5 workers, 10 tasks of 100ms each: about 200ms
	expectedTime := 300 * time.Millisecond
	if elapsed > expectedTime {
		t.Errorf("Downloads took too long: %v (expected < %v)", elapsed, expectedTime)
	}

	if summary.Succeeded != 10 {
		t.Errorf("Expected 10 successes, got %d", summary.Succeeded)
	}
}

func TestRunPartialFailure(t *testing.T) {
	tasks := makeTasks(6, planner.KindStandard)
	mockClient := &MockClient{failURLs: map[string]bool{tasks[1].URL: true, tasks[4].URL: true}}
	mockStorage := NewMockStorageManager()
	rec := &progress.Recorder{}

	pool := NewWorkerPool(3, mockClient, mockStorage, nil, logger.NewTestLogger())
	summary := pool.Run(context.Background(), tasks, rec)

	if summary.Succeeded != 4 || summary.Failed != 2 {
		t.Errorf("Expected 4 succeeded and 2 failed, got %+v", summary)
	}
	if summary.Bytes != 4*int64(len("mock image data")) {
		t.Errorf("Unexpected byte count %d", summary.Bytes)
	}
	if len(rec.Updates) != 6 {
		t.Errorf("Expected one progress update per task, got %d", len(rec.Updates))
	}
	for i, u := range rec.Updates {
		if u.Completed != i+1 || u.Total != 6 {
			t.Errorf("Update %d: got %+v", i, u)
		}
	}
	if len(rec.Finished) != 1 || rec.Finished[0].Label != "Downloading JPG images" {
		t.Errorf("Unexpected finish snapshots %+v", rec.Finished)
	}
}

func TestRunRemovesSupersededFiles(t *testing.T) {
	tasks := makeTasks(2, planner.KindQuality)
	tasks[0].Supersedes = "image0-old.jpg"
	tasks[1].Supersedes = "image1-old.jpg"

	mockClient := &MockClient{failURLs: map[string]bool{tasks[1].URL: true}}
	mockStorage := NewMockStorageManager()
	mockStorage.saved["image0-old.jpg"] = true
	mockStorage.saved["image1-old.jpg"] = true

	pool := NewWorkerPool(2, mockClient, mockStorage, nil, logger.NewTestLogger())
	summary := pool.Run(context.Background(), tasks, nil)

	if summary.Removed != 1 {
		t.Errorf("Expected 1 removed file, got %d", summary.Removed)
	}
	if len(mockStorage.removed) != 1 || mockStorage.removed[0] != "image0-old.jpg" {
		t.Errorf("Only the superseded file of a successful task is removed, got %v", mockStorage.removed)
	}
	if !mockStorage.saved["image1-old.jpg"] {
		t.Error("Superseded file of a failed task must be kept")
	}
}

func TestRunEmpty(t *testing.T) {
	pool := NewWorkerPool(2, &MockClient{}, NewMockStorageManager(), nil, logger.NewTestLogger())
	summary := pool.Run(context.Background(), nil, nil)

	if summary.Total != 0 || summary.Succeeded != 0 {
		t.Errorf("Expected empty summary, got %+v", summary)
	}
}

func TestRunCancelled(t *testing.T) {
	mockClient := &MockClient{downloadDelay: time.Second}
	pool := NewWorkerPool(2, mockClient, NewMockStorageManager(), nil, logger.NewTestLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	summary := pool.Run(ctx, makeTasks(20, planner.KindStandard), nil)

	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("Run did not stop after cancellation")
	}
	if summary.Succeeded != 0 {
		t.Errorf("Expected no successes, got %d", summary.Succeeded)
	}
	if summary.Succeeded+summary.Failed+summary.Cancelled != summary.Total {
		t.Errorf("Counts do not add up: %+v", summary)
	}
}

func TestRunReportsTaskFinishedDuringCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tasks := makeTasks(1, planner.KindQuality)
	tasks[0].Supersedes = "image0-old.jpg"

	mockStorage := NewMockStorageManager()
	mockStorage.saved["image0-old.jpg"] = true
	mockStorage.afterSave = cancel

	pool := NewWorkerPool(1, &MockClient{}, mockStorage, nil, logger.NewTestLogger())
	summary := pool.Run(ctx, tasks, nil)

	if summary.Succeeded != 1 || summary.Cancelled != 0 {
		t.Errorf("A saved file must be counted as succeeded, got %+v", summary)
	}
	if summary.Removed != 1 {
		t.Errorf("Expected the superseded file to be reported removed, got %d", summary.Removed)
	}
}

func TestSaveErrorIsReported(t *testing.T) {
	mockStorage := NewMockStorageManager()
	mockStorage.saveError = fmt.Errorf("disk full")

	pool := NewWorkerPool(1, &MockClient{}, mockStorage, nil, logger.NewTestLogger())
	summary := pool.Run(context.Background(), makeTasks(1, planner.KindStandard), nil)

	if summary.Failed != 1 {
		t.Fatalf("Expected 1 failure, got %+v", summary)
	}
}
