package service

import (
	"context"
	"sync"
	"time"

	"mathtutor-backend/internal/client"
	"mathtutor-backend/internal/model"
	"mathtutor-backend/pkg/logger"
)

// GenerationState tracks where the single in-flight animation job is
// in its lifecycle.
type GenerationState string

const (
	StateIdle       GenerationState = "idle"
	StateSubmitting GenerationState = "submitting"
	StatePolling    GenerationState = "polling"
)

// pollFailureMessage is the generic error shown when a status check
// fails mid-poll.
const pollFailureMessage = "Errore durante il controllo dello stato del rendering."

// RenderService owns the lifecycle of at most one animation generation:
// submit, poll at a fixed interval until a terminal status, and stop.
// It holds the only polling timer; starting a new generation or
// cancelling always tears the previous loop down first.
type RenderService struct {
	client   *client.RenderClient
	interval time.Duration

	mu      sync.Mutex
	state   GenerationState
	job     *model.RenderJob
	jobLog  string
	lastErr string
	stop    chan struct{}
}

func NewRenderService(renderClient *client.RenderClient, pollInterval time.Duration) *RenderService {
	return &RenderService{
		client:   renderClient,
		interval: pollInterval,
		state:    StateIdle,
	}
}

// Generate submits a new render job and starts polling it. Any
// previous job's loop is stopped first; the previous job itself is
// abandoned, not cancelled server-side.
func (r *RenderService) Generate(ctx context.Context, prompt string) error {
	r.mu.Lock()
	r.stopLoopLocked()
	r.state = StateSubmitting
	r.job = nil
	r.jobLog = ""
	r.lastErr = ""
	r.mu.Unlock()

	jobID, err := r.client.Submit(ctx, prompt)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		r.state = StateIdle
		r.lastErr = err.Error()
		return err
	}

	r.job = &model.RenderJob{
		JobID:  jobID,
		Status: model.JobQueued,
		Prompt: prompt,
	}
	r.state = StatePolling

	stop := make(chan struct{})
	r.stop = stop
	go r.pollLoop(jobID, stop)

	logger.Infof("Render job %s submitted, polling every %s", jobID, r.interval)
	return nil
}

// Cancel stops polling and forces the local status to cancelled. The
// server-side cancel is advisory; the user has already moved on, so
// the local state wins regardless of what the service eventually says.
func (r *RenderService) Cancel(ctx context.Context) {
	r.mu.Lock()
	if r.state != StatePolling || r.job == nil {
		r.mu.Unlock()
		return
	}

	jobID := r.job.JobID
	r.stopLoopLocked()
	r.job.Status = model.JobCancelled
	r.state = StateIdle
	r.mu.Unlock()

	r.client.Cancel(ctx, jobID)
}

// Snapshot returns the current state for the status endpoint. The last
// result stays visible until the next submission.
func (r *RenderService) Snapshot() model.AnimationStatusResponse {
	r.mu.Lock()
	defer r.mu.Unlock()

	resp := model.AnimationStatusResponse{
		State: string(r.state),
		Error: r.lastErr,
		Log:   r.jobLog,
	}
	if r.job != nil {
		job := *r.job
		resp.Job = &job
	}
	return resp
}

// Close stops any active polling loop. Teardown must never leave a
// timer running.
func (r *RenderService) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopLoopLocked()
	r.state = StateIdle
}

func (r *RenderService) pollLoop(jobID string, stop chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			job, err := r.client.Status(context.Background(), jobID)
			done, fetchLog := r.applyPoll(jobID, stop, job, err)
			if fetchLog {
				// Fetched once, on the error transition only.
				text := r.client.Log(context.Background(), jobID)
				r.setLog(jobID, text)
			}
			if done {
				return
			}
		}
	}
}

// applyPoll folds one status result into the controller state. It
// reports whether the loop must exit and whether the job log should be
// fetched. Results belonging to a superseded loop are discarded.
func (r *RenderService) applyPoll(jobID string, stop chan struct{}, job *model.RenderJob, err error) (done, fetchLog bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stop != stop || r.job == nil || r.job.JobID != jobID {
		return true, false
	}

	if err != nil {
		logger.Warnf("Status poll for render job %s failed: %v", jobID, err)
		r.stop = nil
		r.state = StateIdle
		r.lastErr = pollFailureMessage
		return true, false
	}

	if job.Prompt == "" {
		job.Prompt = r.job.Prompt
	}
	r.job = job

	if !job.Status.IsTerminal() {
		return false, false
	}

	r.stop = nil
	r.state = StateIdle
	logger.Infof("Render job %s finished with status %s", jobID, job.Status)
	return true, job.Status == model.JobError
}

func (r *RenderService) setLog(jobID, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.job != nil && r.job.JobID == jobID {
		r.jobLog = text
	}
}

// stopLoopLocked closes the current loop's stop channel. Callers must
// hold the lock.
func (r *RenderService) stopLoopLocked() {
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
}
