package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"mathtutor-backend/internal/client"
	"mathtutor-backend/internal/model"
	"mathtutor-backend/internal/service"
)

// newRenderStub answers every submit with one job id and every status
// check with a running job, so tests observe the polling phase.
func newRenderStub(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/render":
			json.NewEncoder(w).Encode(map[string]string{"job_id": "job-1"})
		case strings.HasSuffix(r.URL.Path, "/cancel"):
			w.WriteHeader(http.StatusOK)
		default:
			json.NewEncoder(w).Encode(model.RenderJob{JobID: "job-1", Status: model.JobRunning})
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRenderRouter(t *testing.T, baseURL string) (*gin.Engine, *service.RenderService) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	svc := service.NewRenderService(client.NewRenderClient(baseURL, 2*time.Second), time.Hour)
	t.Cleanup(svc.Close)

	h := NewRenderHandler(svc)

	r := gin.New()
	api := r.Group("/api/animation")
	{
		api.POST("/generate", h.Generate)
		api.GET("/status", h.Status)
		api.POST("/cancel", h.Cancel)
	}
	return r, svc
}

func TestGenerate_RequiresPrompt(t *testing.T) {
	srv := newRenderStub(t)
	r, _ := newRenderRouter(t, srv.URL)

	w := doJSON(t, r, http.MethodPost, "/api/animation/generate", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGenerate_ReturnsPollingSnapshot(t *testing.T) {
	srv := newRenderStub(t)
	r, _ := newRenderRouter(t, srv.URL)

	w := doJSON(t, r, http.MethodPost, "/api/animation/generate", model.GenerateAnimationRequest{Prompt: "plot sin(x)"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var snap model.AnimationStatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if snap.State != "polling" {
		t.Errorf("State = %q, want polling", snap.State)
	}
	if snap.Job == nil || snap.Job.JobID != "job-1" {
		t.Errorf("Job = %+v, want job-1", snap.Job)
	}
}

func TestGenerate_SubmitFailureIs502(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r, _ := newRenderRouter(t, srv.URL)

	w := doJSON(t, r, http.MethodPost, "/api/animation/generate", model.GenerateAnimationRequest{Prompt: "x"})
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestCancel_ReturnsCancelledSnapshot(t *testing.T) {
	srv := newRenderStub(t)
	r, _ := newRenderRouter(t, srv.URL)

	if w := doJSON(t, r, http.MethodPost, "/api/animation/generate", model.GenerateAnimationRequest{Prompt: "x"}); w.Code != http.StatusOK {
		t.Fatalf("generate status = %d", w.Code)
	}

	w := doJSON(t, r, http.MethodPost, "/api/animation/cancel", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status = %d", w.Code)
	}

	var snap model.AnimationStatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if snap.State != "idle" {
		t.Errorf("State = %q, want idle", snap.State)
	}
	if snap.Job == nil || snap.Job.Status != model.JobCancelled {
		t.Errorf("Job = %+v, want cancelled", snap.Job)
	}

	// Idle cancel is a no-op that still reports the snapshot.
	if w := doJSON(t, r, http.MethodPost, "/api/animation/cancel", nil); w.Code != http.StatusOK {
		t.Errorf("second cancel status = %d, want 200", w.Code)
	}
}

func TestStatus_IdleByDefault(t *testing.T) {
	srv := newRenderStub(t)
	r, _ := newRenderRouter(t, srv.URL)

	w := doJSON(t, r, http.MethodGet, "/api/animation/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var snap model.AnimationStatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if snap.State != "idle" {
		t.Errorf("State = %q, want idle", snap.State)
	}
	if snap.Job != nil {
		t.Errorf("Job = %+v, want nil", snap.Job)
	}
}
