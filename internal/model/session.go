package model

import "time"

// Mode selects which solve endpoint and system behavior a session is
// bound to. It is fixed at session creation.
type Mode string

const (
	ModeRegular  Mode = "regular"
	ModeSpeciale Mode = "speciale"
)

func (m Mode) Valid() bool {
	return m == ModeRegular || m == ModeSpeciale
}

const (
	// DefaultSessionTitle is used until a first user message arrives.
	DefaultSessionTitle = "Nuova conversazione"

	titleMaxRunes = 30
)

type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Mode      Mode      `json:"mode"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeriveTitle computes a session title from the first user message:
// the first 30 runes plus an ellipsis when longer, or the default
// placeholder when no user message exists yet.
func DeriveTitle(messages []Message) string {
	for _, msg := range messages {
		if msg.Role != RoleUser {
			continue
		}
		if msg.Content == "" {
			break
		}
		return truncateRunes(msg.Content, titleMaxRunes)
	}
	return DefaultSessionTitle
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
