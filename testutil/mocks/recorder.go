// Package mocks provides test doubles for registry collaborators.
package mocks

import (
	"context"
	"sync"
	"time"
)

// Recorder records registry events. It satisfies registry.Recorder.
type Recorder struct {
	mu           sync.Mutex
	discoveries  int
	skipped      map[string]int
	collisions   []string
	sizes        []int
	instantiated map[string]int
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		skipped:      make(map[string]int),
		instantiated: make(map[string]int),
	}
}

func (r *Recorder) DiscoveryCompleted(owner string, duration time.Duration, candidates int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discoveries++
}

func (r *Recorder) CandidateSkipped(owner, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped[reason]++
}

func (r *Recorder) CodeCollision(owner, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collisions = append(r.collisions, code)
}

func (r *Recorder) IndexInstalled(owner string, size int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sizes = append(r.sizes, size)
}

func (r *Recorder) Instantiated(owner, code string, found bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if found && err == nil {
		r.instantiated[code]++
	}
}

// Discoveries returns the number of completed discovery passes.
func (r *Recorder) Discoveries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.discoveries
}

// Skipped returns how many candidates were skipped for reason.
func (r *Recorder) Skipped(reason string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.skipped[reason]
}

// Collisions returns the colliding codes in report order.
func (r *Recorder) Collisions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.collisions...)
}

// IndexSizes returns the size of every installed index.
func (r *Recorder) IndexSizes() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.sizes...)
}

// Instantiations returns how many times code was constructed successfully.
func (r *Recorder) Instantiations(code string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instantiated[code]
}

// Reloader counts reloads and returns Err from each.
type Reloader struct {
	mu    sync.Mutex
	calls int
	Err   error
	// Delay is slept on every reload.
	Delay time.Duration
}

// Reload implements reload.Reloader.
func (r *Reloader) Reload(ctx context.Context) error {
	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.Err
}

// Calls returns the number of reloads.
func (r *Reloader) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
