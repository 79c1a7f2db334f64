package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patina/gradle-runner/pkg/gradle"
)

// ErrRunNotFound indicates the run ID is unknown
var ErrRunNotFound = errors.New("run not found")

// Run is one Gradle task run of a connector
type Run struct {
	ID        string
	Connector string
	Task      string
	State     gradle.State
	StartedAt time.Time
	UpdatedAt time.Time
}

// Registry records runs
type Registry struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

var _ gradle.Tracker = (*Registry)(nil)

// New creates an empty registry
func New() *Registry {
	return &Registry{
		runs: make(map[string]*Run),
	}
}

// Begin registers a new run in StateInit and returns its ID
func (r *Registry) Begin(connector, task string) string {
	now := time.Now()
	run := &Run{
		ID:        uuid.NewString(),
		Connector: connector,
		Task:      task,
		State:     gradle.StateInit,
		StartedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs[run.ID] = run
	return run.ID
}

// Transition moves a run from one state to another. The expected prior
// state makes concurrent updates of the same run observable.
func (r *Registry) Transition(id string, from, to gradle.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if run.State != from {
		return fmt.Errorf("%w: run %s is %s, expected %s", gradle.ErrInvalidTransition, id, run.State, from)
	}
	if !gradle.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", gradle.ErrInvalidTransition, from, to)
	}

	run.State = to
	run.UpdatedAt = time.Now()
	return nil
}

// Get returns a copy of a run
func (r *Registry) Get(id string) (*Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	runCopy := *run
	return &runCopy, nil
}

// List returns copies of all runs, oldest first
func (r *Registry) List() []*Run {
	r.mu.RLock()
	runs := make([]*Run, 0, len(r.runs))
	for _, run := range r.runs {
		runCopy := *run
		runs = append(runs, &runCopy)
	}
	r.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].StartedAt.Before(runs[j].StartedAt)
	})
	return runs
}

// Active returns the number of runs not yet in a terminal state
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, run := range r.runs {
		if !run.State.IsTerminal() {
			n++
		}
	}
	return n
}

// Count returns the number of registered runs
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.runs)
}
