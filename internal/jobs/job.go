// Package jobs holds the render job entity and the in-memory registry
// that tracks every job's lifecycle.
package jobs

import "time"

// Status is the lifecycle state of a render job.
type Status string

const (
	// StatusPending is the only initial state.
	StatusPending Status = "pending"
	// StatusRendering means the orchestrator has picked the job up.
	StatusRendering Status = "rendering"
	// StatusCompleted is terminal; VideoPath is set.
	StatusCompleted Status = "completed"
	// StatusFailed is terminal; Error is set.
	StatusFailed Status = "failed"
)

// Terminal reports whether no further transitions can happen.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one unit of requested video rendering work.
//
// Exactly one of VideoPath/Error is non-empty once the job reaches a
// terminal state; neither is set before that. Progress only moves
// while the job is non-terminal and never decreases.
type Job struct {
	ID        string    `json:"job_id"`
	Status    Status    `json:"status"`
	Progress  int       `json:"progress"`
	VideoPath string    `json:"video_path,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// New returns a pending job with the given identifier.
func New(id string) *Job {
	return &Job{
		ID:        id,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}
