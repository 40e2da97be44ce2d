package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"mathtutor-backend/internal/model"
	"mathtutor-backend/internal/utils"
)

// SolveClient posts solve requests to whatever endpoint the mode table
// names. It does not know about modes; the caller picks the URL.
type SolveClient struct {
	httpClient *http.Client
}

func NewSolveClient(timeout time.Duration) *SolveClient {
	return &SolveClient{
		httpClient: utils.NewHTTPClient(timeout),
	}
}

// Solve performs one request/response cycle. A non-2xx reply with an
// {error} body is surfaced as an error carrying the server's detail.
func (c *SolveClient) Solve(ctx context.Context, url string, req *model.SolveRequest) (*model.SolveResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("solve request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody model.SolveErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errBody); decodeErr == nil && errBody.Error != "" {
			return nil, fmt.Errorf("solve endpoint returned status %d: %s", resp.StatusCode, errBody.Error)
		}
		return nil, fmt.Errorf("solve endpoint returned status %d", resp.StatusCode)
	}

	var solveResp model.SolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&solveResp); err != nil {
		return nil, fmt.Errorf("solve response decode failed: %w", err)
	}

	return &solveResp, nil
}
