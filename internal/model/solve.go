package model

// HistoryEntry is one prior conversation turn as sent to a solve
// endpoint. Only role and content travel over the wire.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SolveRequest is the payload posted to a solve endpoint.
type SolveRequest struct {
	Message      string         `json:"message"`
	History      []HistoryEntry `json:"history"`
	ThinkingMode bool           `json:"thinkingMode,omitempty"`
	ImageBase64  string         `json:"imageBase64,omitempty"`
	PDFText      string         `json:"pdfText,omitempty"`
}

// SolveResponse is a successful solve endpoint reply.
type SolveResponse struct {
	Solution  string      `json:"solution"`
	Reasoning string      `json:"reasoning,omitempty"`
	Tokens    *TokenUsage `json:"tokens,omitempty"`
	Cost      *float64    `json:"cost,omitempty"`
}

// SolveErrorResponse is the body carried by a non-2xx solve reply.
type SolveErrorResponse struct {
	Error string `json:"error"`
}

// PromptContent is the tagged union a solve request's user turn is
// built from: either plain text, or an ordered list of parts when an
// image rides along. Keeping this explicit makes the upstream request
// construction exhaustive instead of duck-typed.
type PromptContent struct {
	Text  string
	Parts []ContentPart
}

// IsMultiPart reports whether the content must be sent as a part list.
func (c PromptContent) IsMultiPart() bool {
	return len(c.Parts) > 0
}

type ContentPartType string

const (
	PartText  ContentPartType = "text"
	PartImage ContentPartType = "image"
)

type ContentPart struct {
	Type ContentPartType
	// Text is set for PartText parts.
	Text string
	// ImageDataURL is a base64 data URI, set for PartImage parts.
	ImageDataURL string
}

// TextContent builds a plain-text PromptContent.
func TextContent(text string) PromptContent {
	return PromptContent{Text: text}
}

// MultiContent builds a text-plus-image PromptContent.
func MultiContent(text, imageDataURL string) PromptContent {
	return PromptContent{
		Parts: []ContentPart{
			{Type: PartText, Text: text},
			{Type: PartImage, ImageDataURL: imageDataURL},
		},
	}
}
