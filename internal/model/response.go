package model

import "time"

type SessionResponse struct {
	SessionID    string    `json:"session_id"`
	Title        string    `json:"title"`
	Mode         Mode      `json:"mode"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

type SessionListResponse struct {
	Sessions        []SessionResponse `json:"sessions"`
	ActiveSessionID string            `json:"active_session_id,omitempty"`
}

type SendMessageResponse struct {
	SessionID string  `json:"session_id"`
	Message   Message `json:"message"`
}

// AnimationStatusResponse is what the UI polls while a generation is
// in flight; Log is only filled after a job ends in error.
type AnimationStatusResponse struct {
	State string     `json:"state"`
	Job   *RenderJob `json:"job,omitempty"`
	Error string     `json:"error,omitempty"`
	Log   string     `json:"log,omitempty"`
}
