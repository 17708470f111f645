package llm

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"hotelrec/internal/domain"
)

// Mock answers locally. Its JSON answer carries no selection, so a rerank
// through it always falls back to the local order.
type Mock struct{}

func (Mock) Name() string         { return "mock" }
func (Mock) DefaultModel() string { return "mock-model" }

func (m Mock) Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResponse, error) {
	var text string
	if req.ResponseFormat == "json" {
		b, err := json.Marshal(map[string]any{
			"ok":      true,
			"note":    "mock response",
			"summary": truncate(req.Prompt, 120),
		})
		if err != nil {
			return domain.GenerateResponse{}, err
		}
		text = string(b)
	} else {
		text = fmt.Sprintf("[MOCK:%s] %s", req.Model, truncate(req.Prompt, 200))
	}
	return domain.GenerateResponse{Text: text, Model: req.Model, Provider: m.Name()}, nil
}
