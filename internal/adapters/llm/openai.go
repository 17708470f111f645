package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"hotelrec/internal/domain"
)

// OpenAI talks to any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client *openai.Client
}

func NewOpenAI(key, baseURL string) (*OpenAI, error) {
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY (or LLM_API_KEY) is not set")
	}
	cfg := openai.DefaultConfig(key)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg)}, nil
}

func (*OpenAI) Name() string         { return "openai" }
func (*OpenAI) DefaultModel() string { return "gpt-4o-mini" }

func (o *OpenAI) Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResponse, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	creq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}
	if req.ResponseFormat == "json" {
		creq.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := o.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return domain.GenerateResponse{}, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return domain.GenerateResponse{}, errors.New("openai: empty response")
	}
	model := resp.Model
	if model == "" {
		model = req.Model
	}
	return domain.GenerateResponse{Text: resp.Choices[0].Message.Content, Model: model, Provider: o.Name()}, nil
}

// parseAPIError keeps the status code and message of API errors.
func parseAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("openai API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("openai request error %d: %w", reqErr.HTTPStatusCode, reqErr.Err)
	}
	return fmt.Errorf("openai request failed: %w", err)
}
