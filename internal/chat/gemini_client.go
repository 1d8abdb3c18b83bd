package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/LiventyGestion/Liventy-gestion-sub000/pkg/logging"
)

var ErrEmptyCompletion = errors.New("chat: model returned no candidates")

// GeminiClient implements LLMClient on top of the Gemini API.
type GeminiClient struct {
	client  *genai.Client
	modelID string
	logger  *logging.Logger
}

func NewGeminiClient(ctx context.Context, apiKey, modelID string, logger *logging.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("chat: gemini api key is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("chat: create gemini client: %w", err)
	}
	return &GeminiClient{client: client, modelID: modelID, logger: logger}, nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

func (c *GeminiClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	modelID := req.Model
	if modelID == "" {
		modelID = c.modelID
	}
	model := c.client.GenerativeModel(modelID)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(req.MaxTokens)
	}
	model.SetTemperature(req.Temperature)
	if req.TopP > 0 {
		model.SetTopP(req.TopP)
	}
	if len(req.System) > 0 {
		parts := make([]genai.Part, 0, len(req.System))
		for _, s := range req.System {
			parts = append(parts, genai.Text(s))
		}
		model.SystemInstruction = &genai.Content{Parts: parts}
	}

	msgs := req.Messages
	if len(msgs) == 0 {
		return LLMResponse{}, errors.New("chat: request has no messages")
	}

	session := model.StartChat()
	for _, m := range msgs[:len(msgs)-1] {
		session.History = append(session.History, &genai.Content{
			Role:  geminiRole(m.Role),
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	resp, err := session.SendMessage(ctx, genai.Text(msgs[len(msgs)-1].Content))
	if err != nil {
		return LLMResponse{}, fmt.Errorf("chat: gemini completion: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return LLMResponse{}, ErrEmptyCompletion
	}

	candidate := resp.Candidates[0]
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	out := LLMResponse{
		Text:       strings.TrimSpace(sb.String()),
		StopReason: candidate.FinishReason.String(),
	}
	if resp.UsageMetadata != nil {
		out.Usage = TokenUsage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  resp.UsageMetadata.TotalTokenCount,
		}
	}
	if out.Text == "" {
		return LLMResponse{}, ErrEmptyCompletion
	}
	return out, nil
}

// geminiRole maps internal roles onto the two roles Gemini chat history accepts.
func geminiRole(role string) string {
	if role == ChatRoleAssistant {
		return "model"
	}
	return "user"
}
