package jobs

import (
	"sync"

	"scenecast/internal/pkg/errors"
)

// Registry is the process-wide, in-memory table of job records. It is
// the single source of truth read by the status, download, stream and
// delete endpoints and mutated by the orchestrator.
//
// Records are kept until explicitly deleted or the process restarts;
// there is no automatic eviction, so the table grows without bound.
// Nothing is persisted across restarts.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Create registers a new pending job under the given identifier and
// returns a snapshot of it. Identifiers are caller-generated UUIDs,
// so a collision is treated as a programming error.
func (r *Registry) Create(id string) *Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	job := New(id)
	r.jobs[id] = job

	snapshot := *job
	return &snapshot
}

// Get returns a snapshot of the job, or NOT_FOUND.
//
// Snapshots are copies taken under the lock: callers can never observe
// a half-applied multi-field transition.
func (r *Registry) Get(id string) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, errors.NotFound("job", id)
	}

	snapshot := *job
	return &snapshot, nil
}

// Update applies a mutation to the job under the write lock, so that
// multi-field transitions (status+error, status+videoPath+progress)
// are atomic with respect to readers. Returns NOT_FOUND if the job
// was deleted.
func (r *Registry) Update(id string, mutate func(*Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return errors.NotFound("job", id)
	}

	mutate(job)
	return nil
}

// Delete removes the job and returns its final snapshot, or NOT_FOUND.
// Deleting a job that is still rendering is allowed; it does not stop
// the in-flight render.
func (r *Registry) Delete(id string) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, errors.NotFound("job", id)
	}

	delete(r.jobs, id)

	snapshot := *job
	return &snapshot, nil
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
