package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"mathtutor-backend/internal/config"
	"mathtutor-backend/internal/model"
	"mathtutor-backend/internal/utils"
	"mathtutor-backend/pkg/logger"
)

var ErrMissingAPIKey = errors.New("llm api key not configured")

const thinkingModeInstruction = "Ragiona passo per passo ed esponi il tuo ragionamento prima della soluzione finale."

// SolveService implements the solve endpoints the chat dispatcher
// calls: it replays the conversation against the upstream LLM and maps
// the reply to the solve wire shape, including token usage and a cost
// estimate.
type SolveService struct {
	client *openai.Client
	cfg    *config.Config
}

func NewSolveService(cfg *config.Config) *SolveService {
	var clientRef *openai.Client
	if cfg.OpenAI.APIKey != "" {
		clientConfig := openai.DefaultConfig(cfg.OpenAI.APIKey)
		if cfg.OpenAI.BaseURL != "" {
			clientConfig.BaseURL = cfg.OpenAI.BaseURL
		}
		clientConfig.HTTPClient = utils.NewHTTPClient(cfg.OpenAI.Timeout)
		clientRef = openai.NewClientWithConfig(clientConfig)
	}

	return &SolveService{
		client: clientRef,
		cfg:    cfg,
	}
}

// Solve answers one solve request for the given mode.
func (s *SolveService) Solve(ctx context.Context, mode model.Mode, req *model.SolveRequest) (*model.SolveResponse, error) {
	if s.client == nil {
		return nil, ErrMissingAPIKey
	}

	endpoint, ok := s.cfg.Solve.Modes[string(mode)]
	if !ok {
		return nil, ErrUnknownMode
	}

	messages := s.buildMessages(endpoint, req)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.cfg.OpenAI.Model,
		Messages:  messages,
		MaxTokens: s.cfg.OpenAI.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("llm request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm returned no choices")
	}

	choice := resp.Choices[0].Message

	tokens := &model.TokenUsage{
		Input:  resp.Usage.PromptTokens,
		Output: resp.Usage.CompletionTokens,
	}
	cost := s.estimateCost(tokens)

	logger.Debugf("Solve mode=%s tokens=%d/%d", mode, tokens.Input, tokens.Output)

	return &model.SolveResponse{
		Solution:  choice.Content,
		Reasoning: choice.ReasoningContent,
		Tokens:    tokens,
		Cost:      &cost,
	}, nil
}

func (s *SolveService) buildMessages(endpoint config.SolveEndpointConfig, req *model.SolveRequest) []openai.ChatCompletionMessage {
	systemPrompt := endpoint.SystemPrompt
	if req.ThinkingMode {
		systemPrompt = systemPrompt + "\n\n" + thinkingModeInstruction
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    model.RoleSystem,
		Content: systemPrompt,
	})

	for _, entry := range req.History {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    entry.Role,
			Content: entry.Content,
		})
	}

	return append(messages, toOpenAIMessage(buildUserContent(req)))
}

// buildUserContent assembles the final user turn as a tagged content
// value: plain text, or text plus image when an attachment rides along.
func buildUserContent(req *model.SolveRequest) model.PromptContent {
	text := req.Message
	if req.PDFText != "" {
		var b strings.Builder
		b.WriteString(text)
		if text != "" {
			b.WriteString("\n\n")
		}
		b.WriteString("Testo estratto dal PDF allegato:\n")
		b.WriteString(req.PDFText)
		text = b.String()
	}

	if req.ImageBase64 != "" {
		return model.MultiContent(text, "data:image/png;base64,"+req.ImageBase64)
	}
	return model.TextContent(text)
}

// toOpenAIMessage converts the content union into the upstream message
// shape. The switch over part types is exhaustive on purpose.
func toOpenAIMessage(content model.PromptContent) openai.ChatCompletionMessage {
	if !content.IsMultiPart() {
		return openai.ChatCompletionMessage{
			Role:    model.RoleUser,
			Content: content.Text,
		}
	}

	parts := make([]openai.ChatMessagePart, 0, len(content.Parts))
	for _, part := range content.Parts {
		switch part.Type {
		case model.PartText:
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: part.Text,
			})
		case model.PartImage:
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: part.ImageDataURL,
				},
			})
		}
	}

	return openai.ChatCompletionMessage{
		Role:         model.RoleUser,
		MultiContent: parts,
	}
}

func (s *SolveService) estimateCost(tokens *model.TokenUsage) float64 {
	in := float64(tokens.Input) / 1000 * s.cfg.OpenAI.InputPricePer1K
	out := float64(tokens.Output) / 1000 * s.cfg.OpenAI.OutputPricePer1K
	return in + out
}
