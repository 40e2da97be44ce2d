package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"mathtutor-backend/internal/config"
	"mathtutor-backend/internal/model"
	"mathtutor-backend/internal/service"
	"mathtutor-backend/internal/storage"
)

func newChatRouter(t *testing.T, solveURL string) (*gin.Engine, *service.SessionStore) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	sessions := service.NewSessionStore(storage.NewMemoryStore())
	if err := sessions.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}

	cfg := &config.Config{
		Solve: config.SolveConfig{
			Timeout: 5 * time.Second,
			Modes: map[string]config.SolveEndpointConfig{
				"regular":  {URL: solveURL},
				"speciale": {URL: solveURL},
			},
		},
	}

	h := NewChatHandler(service.NewChatService(cfg, sessions))

	r := gin.New()
	api := r.Group("/api/chat")
	{
		api.POST("/send", h.SendMessage)
		api.POST("/session", h.CreateSession)
		api.GET("/session/list", h.GetSessionList)
		api.GET("/session/:session_id", h.GetSession)
		api.GET("/messages/:session_id", h.GetMessages)
		api.GET("/session/del/:session_id", h.DeleteSession)
		api.POST("/session/switch/:session_id", h.SwitchActive)
	}
	return r, sessions
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newSolveStub(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.SolveResponse{Solution: "fatto"})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSendMessage_OK(t *testing.T) {
	srv := newSolveStub(t)
	r, _ := newChatRouter(t, srv.URL)

	w := doJSON(t, r, http.MethodPost, "/api/chat/send", model.SendMessageRequest{
		Mode:    model.ModeRegular,
		Message: "domanda",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp model.SendMessageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("SessionID is empty")
	}
	if resp.Message.Content != "fatto" {
		t.Errorf("assistant content = %q, want %q", resp.Message.Content, "fatto")
	}
}

func TestSendMessage_ValidationStatusCodes(t *testing.T) {
	srv := newSolveStub(t)
	r, sessions := newChatRouter(t, srv.URL)

	session := sessions.CreateSession(context.Background(), model.ModeRegular)

	tests := []struct {
		name string
		req  model.SendMessageRequest
		want int
	}{
		{
			name: "empty message",
			req:  model.SendMessageRequest{Mode: model.ModeRegular, Message: "  "},
			want: http.StatusBadRequest,
		},
		{
			name: "unknown session",
			req:  model.SendMessageRequest{Mode: model.ModeRegular, SessionID: "missing", Message: "ciao"},
			want: http.StatusNotFound,
		},
		{
			name: "mode mismatch",
			req:  model.SendMessageRequest{Mode: model.ModeSpeciale, SessionID: session.ID, Message: "ciao"},
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/chat/send", tt.req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d, body = %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestCreateSession_InvalidModeRejected(t *testing.T) {
	srv := newSolveStub(t)
	r, _ := newChatRouter(t, srv.URL)

	w := doJSON(t, r, http.MethodPost, "/api/chat/session", map[string]string{"mode": "turbo"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetSessionList_FilteredAndActive(t *testing.T) {
	srv := newSolveStub(t)
	r, sessions := newChatRouter(t, srv.URL)

	regular := sessions.CreateSession(context.Background(), model.ModeRegular)
	sessions.CreateSession(context.Background(), model.ModeSpeciale)

	w := doJSON(t, r, http.MethodGet, "/api/chat/session/list?mode=regular", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp model.SessionListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Sessions) != 1 {
		t.Fatalf("len(Sessions) = %d, want 1", len(resp.Sessions))
	}
	if resp.Sessions[0].SessionID != regular.ID {
		t.Errorf("SessionID = %q, want %q", resp.Sessions[0].SessionID, regular.ID)
	}
	if resp.ActiveSessionID != regular.ID {
		t.Errorf("ActiveSessionID = %q, want %q", resp.ActiveSessionID, regular.ID)
	}

	if w := doJSON(t, r, http.MethodGet, "/api/chat/session/list?mode=bogus", nil); w.Code != http.StatusBadRequest {
		t.Errorf("invalid mode status = %d, want 400", w.Code)
	}
}

func TestSwitchActive_UnknownSessionIs404(t *testing.T) {
	srv := newSolveStub(t)
	r, sessions := newChatRouter(t, srv.URL)

	first := sessions.CreateSession(context.Background(), model.ModeRegular)
	sessions.CreateSession(context.Background(), model.ModeRegular)

	if w := doJSON(t, r, http.MethodPost, "/api/chat/session/switch/"+first.ID, nil); w.Code != http.StatusOK {
		t.Errorf("switch status = %d, want 200", w.Code)
	}
	if got := sessions.Active(model.ModeRegular); got != first.ID {
		t.Errorf("Active = %q, want %q", got, first.ID)
	}

	if w := doJSON(t, r, http.MethodPost, "/api/chat/session/switch/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("switch unknown status = %d, want 404", w.Code)
	}
}

func TestDeleteSession_RemovesFromList(t *testing.T) {
	srv := newSolveStub(t)
	r, sessions := newChatRouter(t, srv.URL)

	session := sessions.CreateSession(context.Background(), model.ModeRegular)

	if w := doJSON(t, r, http.MethodGet, "/api/chat/session/del/"+session.ID, nil); w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	if _, found := sessions.Get(session.ID); found {
		t.Error("session still present after delete")
	}
}

func TestGetMessages_UnknownSessionIs404(t *testing.T) {
	srv := newSolveStub(t)
	r, _ := newChatRouter(t, srv.URL)

	if w := doJSON(t, r, http.MethodGet, "/api/chat/messages/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
