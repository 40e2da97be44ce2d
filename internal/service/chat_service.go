package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mathtutor-backend/internal/client"
	"mathtutor-backend/internal/config"
	"mathtutor-backend/internal/model"
	"mathtutor-backend/pkg/logger"
)

var (
	// ErrEmptyMessage means there was nothing to send: blank input and
	// no attachment. The session is left untouched.
	ErrEmptyMessage = errors.New("nothing to send")

	// ErrDispatchInFlight means a send for the same session has not
	// completed yet.
	ErrDispatchInFlight = errors.New("dispatch already in flight for session")

	ErrUnknownMode     = errors.New("unknown chat mode")
	ErrModeMismatch    = errors.New("session belongs to a different mode")
	ErrSessionNotFound = errors.New("session not found")
)

// solveErrorPrefix heads the in-band assistant message produced when a
// dispatch fails. Failures are chat content, never thrown at the UI.
const solveErrorPrefix = "Mi dispiace, si è verificato un errore: "

// Placeholder texts shown as the user message when only an attachment
// was submitted.
const (
	placeholderImageSent = "[Immagine inviata]"
	placeholderPDFSent   = "[Documento PDF inviato]"
)

// ChatService orchestrates one request/response cycle against a solve
// endpoint: optimistic user-message insert, history construction,
// endpoint selection by mode, and folding the reply (or failure) back
// into the session.
type ChatService struct {
	sessions *SessionStore
	solver   *client.SolveClient
	cfg      *config.SolveConfig

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewChatService(cfg *config.Config, sessions *SessionStore) *ChatService {
	return &ChatService{
		sessions: sessions,
		solver:   client.NewSolveClient(cfg.Solve.Timeout),
		cfg:      &cfg.Solve,
		inFlight: make(map[string]bool),
	}
}

// Sessions exposes the session store for handlers that only do CRUD.
func (s *ChatService) Sessions() *SessionStore {
	return s.sessions
}

// Send runs one dispatch cycle and returns the assistant message that
// was appended, success or not. Validation failures (ErrEmptyMessage,
// ErrDispatchInFlight) leave all session state untouched.
func (s *ChatService) Send(ctx context.Context, req *model.SendMessageRequest) (*model.SendMessageResponse, error) {
	text := strings.TrimSpace(req.Message)
	hasImage := req.ImageBase64 != ""
	hasPDF := req.PDFText != ""

	if text == "" && !hasImage && !hasPDF {
		return nil, ErrEmptyMessage
	}

	endpoint, ok := s.cfg.Modes[string(req.Mode)]
	if !ok {
		return nil, ErrUnknownMode
	}

	sessionID, err := s.resolveSession(ctx, req)
	if err != nil {
		return nil, err
	}

	// One dispatch per session at a time. The lock is taken before the
	// optimistic insert so a rejected call has no side effects.
	if !s.acquire(sessionID) {
		return nil, ErrDispatchInFlight
	}
	defer s.release(sessionID)

	// History is built from the snapshot taken before the optimistic
	// insert: the message being sent is never part of its own history.
	session, found := s.sessions.Get(sessionID)
	if !found {
		return nil, ErrSessionNotFound
	}
	history := buildHistory(session.Messages)

	userMsg := s.buildUserMessage(sessionID, text, req, endpoint)
	s.sessions.AppendMessages(ctx, sessionID, userMsg)

	solveReq := buildSolveRequest(text, history, req, endpoint)

	assistantMsg := model.Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      model.RoleAssistant,
		Timestamp: time.Now(),
	}

	resp, err := s.solver.Solve(ctx, endpoint.URL, solveReq)
	if err != nil {
		logger.Warnf("Solve dispatch for session %s failed: %v", sessionID, err)
		assistantMsg.Content = solveErrorPrefix + err.Error()
	} else {
		assistantMsg.Content = resp.Solution
		assistantMsg.Reasoning = resp.Reasoning
		assistantMsg.Tokens = resp.Tokens
		assistantMsg.Cost = resp.Cost
	}

	// Appending by the captured id keeps a reply bound to the session
	// it was asked in, even if the active pointer moved meanwhile.
	s.sessions.AppendMessages(ctx, sessionID, assistantMsg)

	return &model.SendMessageResponse{
		SessionID: sessionID,
		Message:   assistantMsg,
	}, nil
}

// resolveSession picks the target session: an explicit id, else the
// active session for the mode, else a freshly created one.
func (s *ChatService) resolveSession(ctx context.Context, req *model.SendMessageRequest) (string, error) {
	if req.SessionID != "" {
		session, found := s.sessions.Get(req.SessionID)
		if !found {
			return "", ErrSessionNotFound
		}
		if session.Mode != req.Mode {
			return "", ErrModeMismatch
		}
		return session.ID, nil
	}

	if active := s.sessions.Active(req.Mode); active != "" {
		return active, nil
	}

	session := s.sessions.CreateSession(ctx, req.Mode)
	return session.ID, nil
}

func (s *ChatService) buildUserMessage(sessionID, text string, req *model.SendMessageRequest, endpoint config.SolveEndpointConfig) model.Message {
	content := text
	if content == "" {
		if req.ImageBase64 != "" {
			content = placeholderImageSent
		} else {
			content = placeholderPDFSent
		}
	}

	msg := model.Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      model.RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}

	if endpoint.Attachments && req.ImageBase64 != "" {
		msg.ImageURL = "data:image/png;base64," + req.ImageBase64
	}

	return msg
}

func buildSolveRequest(text string, history []model.HistoryEntry, req *model.SendMessageRequest, endpoint config.SolveEndpointConfig) *model.SolveRequest {
	solveReq := &model.SolveRequest{
		Message: text,
		History: history,
	}

	// Attachment and thinking-mode support is a property of the mode's
	// endpoint; unsupported fields are dropped, not rejected.
	if endpoint.Attachments {
		solveReq.ImageBase64 = req.ImageBase64
		solveReq.PDFText = req.PDFText
	}
	if endpoint.ThinkingMode {
		solveReq.ThinkingMode = req.ThinkingMode
	}

	return solveReq
}

func buildHistory(messages []model.Message) []model.HistoryEntry {
	history := make([]model.HistoryEntry, 0, len(messages))
	for _, msg := range messages {
		history = append(history, model.HistoryEntry{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return history
}

func (s *ChatService) acquire(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight[sessionID] {
		return false
	}
	s.inFlight[sessionID] = true
	return true
}

func (s *ChatService) release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inFlight, sessionID)
}
