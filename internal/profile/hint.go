// Package profile turns a user's recent feedback into a short text hint that
// biases the next round of recommendations. It is a fixed rule set, not a
// learned model: the same feedback always yields the same hint.
package profile

import (
	"context"
	"fmt"
	"strings"

	"hotelrec/internal/domain"
)

// Window is how many recent feedback records feed the hint.
const Window = 20

const (
	NeutralHint = "Profile: (no feedback) recommend a general, balanced set"
	separator   = " | "

	clauseHighRated = "prioritize high-rated options"
	clauseDiverse   = "try more diverse/varied options"
	clauseBalance   = "balance rating and price"
)

// preference triggers; each clause is appended at most once
var preferences = []struct {
	clause   string
	keywords []string
}{
	{"preference: quiet/calm venues", []string{"sessiz", "sakin", "quiet", "calm"}},
	{"preference: family friendly", []string{"aile", "family"}},
	{"preference: budget sensitive", []string{"ucuz", "bütçe", "butce", "cheap", "budget"}},
}

// Source reads a user's most recent feedback, newest first.
type Source interface {
	GetRecentFeedback(ctx context.Context, userID int64, limit int) ([]domain.FeedbackEntry, error)
}

type Builder struct{ src Source }

func NewBuilder(src Source) *Builder { return &Builder{src: src} }

// Hint loads the last Window feedback records for userID and builds the hint.
func (b *Builder) Hint(ctx context.Context, userID int64) (string, error) {
	rows, err := b.src.GetRecentFeedback(ctx, userID, Window)
	if err != nil {
		return "", fmt.Errorf("recent feedback for user %d: %w", userID, err)
	}
	return BuildHint(rows), nil
}

// BuildHint summarises up to Window entries (newest first; extra entries
// are ignored) into one " | " separated string.
func BuildHint(rows []domain.FeedbackEntry) string {
	if len(rows) > Window {
		rows = rows[:Window]
	}
	if len(rows) == 0 {
		return NeutralHint
	}

	sum, likes, dislikes := 0, 0, 0
	comments := make([]string, 0, len(rows))
	for _, r := range rows {
		sum += r.Rating
		switch {
		case r.Rating >= 4:
			likes++
		case r.Rating <= 2:
			dislikes++
		}
		comments = append(comments, r.Comment)
	}
	avg := float64(sum) / float64(len(rows))

	clauses := []string{
		fmt.Sprintf("Profile: last %d feedback average=%.2f", len(rows), avg),
		fmt.Sprintf("likes=%d, dislikes=%d", likes, dislikes),
		disposition(avg),
	}

	text := strings.ToLower(strings.Join(comments, " "))
	for _, p := range preferences {
		for _, kw := range p.keywords {
			if strings.Contains(text, kw) {
				clauses = append(clauses, p.clause)
				break
			}
		}
	}
	return strings.Join(clauses, separator)
}

func disposition(avg float64) string {
	switch {
	case avg >= 4.2:
		return clauseHighRated
	case avg <= 3.0:
		return clauseDiverse
	default:
		return clauseBalance
	}
}
