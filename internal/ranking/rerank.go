package ranking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"hotelrec/internal/domain"
)

var (
	ErrRerankDisabled    = errors.New("rerank disabled")
	ErrNoGenerator       = errors.New("rerank: no text generator configured")
	ErrMalformedResponse = errors.New("rerank: malformed response")
	ErrEmptySelection    = errors.New("rerank: empty selection")
)

// Candidate is anything with a stable string id.
type Candidate interface {
	CandidateID() string
}

type RerankConfig struct {
	Enabled     bool
	Model       string
	Temperature float64
	MaxTokens   int
}

// DefaultRerankConfig mirrors the settings used for the rerank call.
func DefaultRerankConfig(enabled bool) RerankConfig {
	return RerankConfig{Enabled: enabled, Temperature: 0.2, MaxTokens: 700}
}

type RerankRequest[T Candidate] struct {
	Kind        Kind
	Context     string // short free-text description of what the user asked for
	Anchor      any    // optional extra JSON context, e.g. the hotel a restaurant list is for
	Candidates  []T    // already in deterministic order
	ProfileHint string
	TopK        int
}

// Pick is one id chosen by the reranker, with its optional reason.
type Pick struct {
	ID     string
	Reason string
}

// Outcome is the result of Rerank. Items is always usable: it is either
// the reranked list (Used) or the first TopK candidates in original order.
type Outcome[T Candidate] struct {
	Items   []T
	Used    bool
	Reason  error             // why the fallback was taken, nil when Used
	Reasons map[string]string // provider justification by candidate id
}

// Rerank asks gen to reorder req.Candidates and enforces the contract on
// its answer: unknown ids are dropped, duplicates collapse, the result is
// backfilled from the original order up to TopK and truncated to TopK. Any
// failure (disabled, call error, malformed or empty answer) falls back to
// the first TopK candidates. The call is never retried.
func Rerank[T Candidate](ctx context.Context, gen domain.TextGenerator, cfg RerankConfig, req RerankRequest[T]) Outcome[T] {
	fallback := head(req.Candidates, req.TopK)
	if len(fallback) == 0 {
		return Outcome[T]{Items: fallback}
	}
	if !cfg.Enabled {
		return Outcome[T]{Items: fallback, Reason: ErrRerankDisabled}
	}

	items, reasons, err := rerankOnce(ctx, gen, cfg, req)
	if err != nil {
		log.Warn().Err(err).
			Str("kind", req.Kind.Name).
			Int("candidates", len(req.Candidates)).
			Msg("rerank fallback to local order")
		return Outcome[T]{Items: fallback, Reason: err}
	}

	log.Debug().Str("kind", req.Kind.Name).Int("items", len(items)).Msg("rerank used")
	return Outcome[T]{Items: items, Used: true, Reasons: reasons}
}

func rerankOnce[T Candidate](ctx context.Context, gen domain.TextGenerator, cfg RerankConfig, req RerankRequest[T]) ([]T, map[string]string, error) {
	if gen == nil {
		return nil, nil, ErrNoGenerator
	}
	prompt, err := req.Kind.buildPrompt(req.Context, req.Anchor, req.Candidates, req.ProfileHint)
	if err != nil {
		return nil, nil, fmt.Errorf("build prompt: %w", err)
	}

	resp, err := gen.Generate(ctx, domain.GenerateRequest{
		System:         SystemPrompt,
		Prompt:         prompt,
		Model:          cfg.Model,
		Temperature:    cfg.Temperature,
		MaxTokens:      cfg.MaxTokens,
		ResponseFormat: "json",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("generate: %w", err)
	}

	picks, err := ParsePicks(resp.Text, req.Kind)
	if err != nil {
		return nil, nil, err
	}
	if len(picks) == 0 {
		return nil, nil, ErrEmptySelection
	}
	// unknown ids are dropped and the gap is backfilled, so the list is
	// non-empty whenever there are candidates
	items, matched := ApplyPicks(req.Candidates, picks, req.TopK)
	if len(items) == 0 {
		return nil, nil, ErrEmptySelection
	}
	if matched < len(picks) {
		log.Debug().Str("kind", req.Kind.Name).
			Int("picked", len(picks)).
			Int("matched", matched).
			Msg("rerank ignored some picks")
	}

	reasons := make(map[string]string, len(picks))
	for _, p := range picks {
		if p.Reason != "" {
			reasons[p.ID] = p.Reason
		}
	}
	return items, reasons, nil
}

// ApplyPicks maps picked ids back onto candidates, dropping ids that are not
// candidates and repeated ids, then backfills from the original order until
// topK is reached. It returns the list and how many picks matched.
func ApplyPicks[T Candidate](candidates []T, picks []Pick, topK int) ([]T, int) {
	if topK <= 0 {
		return nil, 0
	}
	byID := make(map[string]int, len(candidates))
	for i, c := range candidates {
		if _, dup := byID[c.CandidateID()]; !dup {
			byID[c.CandidateID()] = i
		}
	}

	used := make(map[string]struct{}, len(picks))
	out := make([]T, 0, topK)
	for _, p := range picks {
		i, ok := byID[p.ID]
		if !ok {
			continue
		}
		if _, dup := used[p.ID]; dup {
			continue
		}
		used[p.ID] = struct{}{}
		out = append(out, candidates[i])
	}
	matched := len(out)

	for _, c := range candidates {
		if len(out) >= topK {
			break
		}
		if _, dup := used[c.CandidateID()]; dup {
			continue
		}
		used[c.CandidateID()] = struct{}{}
		out = append(out, c)
	}
	if len(out) > topK {
		out = out[:topK]
	}
	return out, min(matched, len(out))
}

// ParsePicks decodes a reranker answer of the form
//
//	{"<list key>": [{"<id key>": 12, "reason": "..."}, ...]}
//
// Numeric and string ids are both accepted. Entries that are not objects or
// carry no id are skipped. A surrounding markdown code fence is tolerated.
func ParsePicks(text string, kind Kind) ([]Pick, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripFence(text)), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	raw, ok := payload[kind.ListKey]
	if !ok {
		return nil, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %q is not a list", ErrMalformedResponse, kind.ListKey)
	}

	picks := make([]Pick, 0, len(entries))
	for _, e := range entries {
		var obj map[string]any
		if json.Unmarshal(e, &obj) != nil || obj == nil {
			continue
		}
		id := ""
		for _, k := range kind.IDKeys {
			if id = coerceID(obj[k]); id != "" {
				break
			}
		}
		if id == "" {
			continue
		}
		reason, _ := obj["reason"].(string)
		picks = append(picks, Pick{ID: id, Reason: strings.TrimSpace(reason)})
	}
	return picks, nil
}

func coerceID(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	}
	return ""
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:] // drop the language tag line
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func head[T any](items []T, n int) []T {
	if n <= 0 || len(items) == 0 {
		return nil
	}
	if len(items) > n {
		items = items[:n]
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}
