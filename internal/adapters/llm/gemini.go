package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"hotelrec/internal/domain"
)

const defaultGeminiBase = "https://generativelanguage.googleapis.com/v1beta"

// Gemini calls the generateContent REST endpoint.
type Gemini struct {
	base string
	key  string
	hc   *http.Client
	rl   *rate.Limiter
}

func NewGemini(key, base string) (*Gemini, error) {
	if key == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY (or LLM_API_KEY) is not set")
	}
	if base == "" {
		base = defaultGeminiBase
	}
	return &Gemini{
		base: strings.TrimRight(base, "/"),
		key:  key,
		hc:   &http.Client{},
		rl:   rate.NewLimiter(rate.Limit(2), 2),
	}, nil
}

func (*Gemini) Name() string         { return "gemini" }
func (*Gemini) DefaultModel() string { return "gemini-1.5-flash" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiRequest struct {
	Contents []struct {
		Parts []geminiPart `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature      float64 `json:"temperature"`
		MaxOutputTokens  int     `json:"maxOutputTokens"`
		ResponseMimeType string  `json:"responseMimeType,omitempty"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (g *Gemini) Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResponse, error) {
	if err := g.rl.Wait(ctx); err != nil {
		return domain.GenerateResponse{}, err
	}

	var body geminiRequest
	parts := []geminiPart{}
	if req.System != "" {
		parts = append(parts, geminiPart{Text: "[SYSTEM]\n" + req.System})
	}
	parts = append(parts, geminiPart{Text: req.Prompt})
	body.Contents = append(body.Contents, struct {
		Parts []geminiPart `json:"parts"`
	}{Parts: parts})
	body.GenerationConfig.Temperature = req.Temperature
	body.GenerationConfig.MaxOutputTokens = req.MaxTokens
	if req.ResponseFormat == "json" {
		body.GenerationConfig.ResponseMimeType = "application/json"
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return domain.GenerateResponse{}, err
	}

	u := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.base, url.PathEscape(req.Model), url.QueryEscape(g.key))
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return domain.GenerateResponse{}, err
	}
	hreq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.hc.Do(hreq)
	if err != nil {
		return domain.GenerateResponse{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.GenerateResponse{}, fmt.Errorf("gemini error %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.GenerateResponse{}, fmt.Errorf("decode gemini response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return domain.GenerateResponse{}, fmt.Errorf("gemini empty response after %s", time.Since(start).Round(time.Millisecond))
	}
	return domain.GenerateResponse{
		Text:     out.Candidates[0].Content.Parts[0].Text,
		Model:    req.Model,
		Provider: g.Name(),
	}, nil
}
