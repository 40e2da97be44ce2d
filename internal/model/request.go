package model

type SendMessageRequest struct {
	SessionID    string `json:"session_id"`
	Mode         Mode   `json:"mode" binding:"required"`
	Message      string `json:"message"`
	ThinkingMode bool   `json:"thinking_mode"`
	ImageBase64  string `json:"image_base64"`
	PDFText      string `json:"pdf_text"`
}

type CreateSessionRequest struct {
	Mode Mode `json:"mode" binding:"required"`
}

type GenerateAnimationRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}
