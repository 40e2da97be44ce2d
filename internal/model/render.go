package model

// JobStatus is the render service's view of a job. Transitions are
// driven exclusively by the service; the one local exception is the
// forced move to cancelled when the user abandons a job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobDone      JobStatus = "done"
	JobError     JobStatus = "error"
	JobCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether no further transitions can occur.
func (s JobStatus) IsTerminal() bool {
	return s == JobDone || s == JobError || s == JobCancelled
}

// RenderJob mirrors the JSON returned by GET /jobs/{id} on the
// external animation renderer.
type RenderJob struct {
	JobID            string    `json:"job_id"`
	Status           JobStatus `json:"status"`
	Prompt           string    `json:"prompt,omitempty"`
	VideoURL         string    `json:"video_url,omitempty"`
	Error            string    `json:"error,omitempty"`
	EstimatedSeconds float64   `json:"estimated_seconds,omitempty"`
	RenderSeconds    float64   `json:"render_seconds,omitempty"`
}
