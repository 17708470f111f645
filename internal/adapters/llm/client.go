// Package llm adapts language-model providers (mock, Gemini, any
// OpenAI-compatible endpoint) to domain.TextGenerator.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/semaphore"

	"hotelrec/internal/adapters/observability"
	"hotelrec/internal/domain"
)

// Provider is one concrete language-model backend.
type Provider interface {
	Name() string
	DefaultModel() string
	Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResponse, error)
}

type Config struct {
	Provider string // mock|gemini|openai
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration

	MaxInFlight int // concurrent provider calls per process, default 4
}

const defaultMaxInFlight = 4

// Client resolves the model, bounds each call with a timeout and guards the
// provider with a circuit breaker. It never retries.
type Client struct {
	p       Provider
	model   string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[domain.GenerateResponse]
	sem     *semaphore.Weighted
}

// New builds a Client for cfg. An unknown provider name or a provider that
// cannot be initialised falls back to the mock provider.
func New(cfg Config) *Client {
	p, err := newProvider(cfg)
	if err != nil {
		log.Warn().Err(err).Str("provider", cfg.Provider).Msg("llm provider init failed, falling back to mock")
		p = Mock{}
	}
	c := NewWithProvider(p, cfg.Model, cfg.Timeout)
	if cfg.MaxInFlight > 0 {
		c.sem = semaphore.NewWeighted(int64(cfg.MaxInFlight))
	}
	return c
}

func NewWithProvider(p Provider, model string, timeout time.Duration) *Client {
	if model == "" {
		model = p.DefaultModel()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	name := "llm-" + p.Name()
	observability.SetBreakerState(name, 0)

	cb := gobreaker.NewCircuitBreaker[domain.GenerateResponse](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("llm circuit breaker state change")
			observability.SetBreakerState(name, stateValue(to))
		},
	})
	return &Client{p: p, model: model, timeout: timeout, cb: cb, sem: semaphore.NewWeighted(defaultMaxInFlight)}
}

func (c *Client) Provider() string { return c.p.Name() }
func (c *Client) Model() string    { return c.model }

// Generate implements domain.TextGenerator.
func (c *Client) Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResponse, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	// queueing for a slot counts against the caller's deadline, not the call timeout
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return domain.GenerateResponse{}, fmt.Errorf("llm %s: %w", c.p.Name(), err)
	}
	defer c.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.cb.Execute(func() (domain.GenerateResponse, error) {
		return c.p.Generate(ctx, req)
	})
	status := 200
	if err != nil {
		status = 0
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			status = 503
		}
	}
	observability.ObserveExternal("llm", c.p.Name(), status, time.Since(start))
	if err != nil {
		return domain.GenerateResponse{}, fmt.Errorf("llm %s: %w", c.p.Name(), err)
	}
	return resp, nil
}

func newProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "mock":
		return Mock{}, nil
	case "gemini":
		return NewGemini(cfg.APIKey, cfg.BaseURL)
	case "openai":
		return NewOpenAI(cfg.APIKey, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q, use mock|gemini|openai", cfg.Provider)
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
