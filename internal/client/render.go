package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mathtutor-backend/internal/model"
	"mathtutor-backend/internal/utils"
	"mathtutor-backend/pkg/logger"
)

// LogUnavailable is returned by Log when the diagnostic text cannot be
// fetched. Logs are advisory, so a placeholder beats an error.
const LogUnavailable = "Log non disponibile."

// RenderClient is a stateless wrapper around the external animation
// render service. No retries, no caching; every method is one request.
type RenderClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRenderClient(baseURL string, timeout time.Duration) *RenderClient {
	return &RenderClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: utils.NewHTTPClient(timeout),
	}
}

type submitRequest struct {
	Prompt string `json:"prompt"`
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type logResponse struct {
	Log string `json:"log"`
}

// Submit starts a render job and returns the server-assigned job id.
func (c *RenderClient) Submit(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(submitRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("render submit failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("render submit failed: status %d", resp.StatusCode)
	}

	var sub submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return "", fmt.Errorf("render submit failed: %w", err)
	}

	return sub.JobID, nil
}

// Status fetches the server-reported state of a job.
func (c *RenderClient) Status(ctx context.Context, jobID string) (*model.RenderJob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/jobs/"+jobID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render status failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("render status failed: status %d", resp.StatusCode)
	}

	var job model.RenderJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("render status failed: %w", err)
	}

	return &job, nil
}

// Cancel asks the service to stop a job. Cancellation is advisory:
// failures are logged and swallowed so the caller never trips on it.
func (c *RenderClient) Cancel(ctx context.Context, jobID string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs/"+jobID+"/cancel", nil)
	if err != nil {
		logger.Warnf("Render cancel for job %s not sent: %v", jobID, err)
		return
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warnf("Render cancel for job %s failed: %v", jobID, err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warnf("Render cancel for job %s returned status %d", jobID, resp.StatusCode)
	}
}

// Log fetches the job's diagnostic output, falling back to a fixed
// placeholder on any failure.
func (c *RenderClient) Log(ctx context.Context, jobID string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/jobs/"+jobID+"/log", nil)
	if err != nil {
		return LogUnavailable
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warnf("Render log fetch for job %s failed: %v", jobID, err)
		return LogUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warnf("Render log fetch for job %s returned status %d", jobID, resp.StatusCode)
		return LogUnavailable
	}

	var lr logResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return LogUnavailable
	}

	return lr.Log
}
