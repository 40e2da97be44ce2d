package model

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	// RoleSystem only ever appears in upstream LLM requests, never in a
	// stored session.
	RoleSystem = "system"
)

type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

type Message struct {
	ID        string      `json:"id"`
	SessionID string      `json:"session_id"`
	Role      string      `json:"role"`
	Content   string      `json:"content"`
	Reasoning string      `json:"reasoning,omitempty"`
	Tokens    *TokenUsage `json:"tokens,omitempty"`
	Cost      *float64    `json:"cost,omitempty"`
	ImageURL  string      `json:"image_url,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
