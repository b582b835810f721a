package utils

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// WorkerPool runs submitted jobs on at most maxWorkers goroutines, with an
// optional minimum interval between job starts.
type WorkerPool struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	wg      sync.WaitGroup

	submitted atomic.Int64
	completed atomic.Int64
	onPanic   func(error)
}

// NewWorkerPool creates a WorkerPool with the given concurrency and rate limit.
// A maxWorkers below one is treated as one; a rateLimitMs of zero disables
// pacing.
func NewWorkerPool(maxWorkers, rateLimitMs int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	wp := &WorkerPool{sem: semaphore.NewWeighted(int64(maxWorkers))}
	if rateLimitMs > 0 {
		wp.limiter = rate.NewLimiter(rate.Every(time.Duration(rateLimitMs)*time.Millisecond), 1)
	}
	return wp
}

// OnPanic registers a handler for jobs that panic. The panic is converted to
// an error and the pool keeps running.
func (wp *WorkerPool) OnPanic(fn func(error)) {
	wp.onPanic = fn
}

// Submit enqueues a job for execution in the pool. It blocks while all
// workers are busy.
func (wp *WorkerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.submitted.Add(1)
	// Acquire only fails on a done context.
	_ = wp.sem.Acquire(context.Background(), 1)

	go func() {
		defer wp.wg.Done()
		defer wp.sem.Release(1)
		defer wp.completed.Add(1)
		defer wp.recover()

		if wp.limiter != nil {
			_ = wp.limiter.Wait(context.Background())
		}
		job()
	}()
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Submitted returns the number of jobs handed to Submit so far.
func (wp *WorkerPool) Submitted() int64 { return wp.submitted.Load() }

// Completed returns the number of jobs that have finished, including panics.
func (wp *WorkerPool) Completed() int64 { return wp.completed.Load() }

func (wp *WorkerPool) recover() {
	r := recover()
	if r == nil {
		return
	}
	if wp.onPanic != nil {
		wp.onPanic(fmt.Errorf("worker panic: %v", r))
	}
}

// URLSet is a thread-safe set of listing URLs already handed to a worker.
type URLSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// Add returns true if the URL was newly added, false if already present.
func (s *URLSet) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[url]; exists {
		return false
	}
	s.seen[url] = struct{}{}
	return true
}

// Size returns the number of unique URLs tracked.
func (s *URLSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
