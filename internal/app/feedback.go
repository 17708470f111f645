package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hotelrec/internal/domain"
	"hotelrec/internal/profile"
)

// FeedbackService owns the write side: users, sessions and ratings.
type FeedbackService struct {
	store domain.FeedbackStore
	hints *profile.Builder
}

func NewFeedbackService(store domain.FeedbackStore) *FeedbackService {
	return &FeedbackService{store: store, hints: profile.NewBuilder(store)}
}

// StartSession resolves identifier to a user (creating it on first sight)
// and opens a new session for it.
func (s *FeedbackService) StartSession(ctx context.Context, identifier string) (domain.Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return domain.Session{}, fmt.Errorf("%w: user identifier is required", domain.ErrInvalidInput)
	}
	userID, err := s.store.GetOrCreateUser(ctx, identifier)
	if err != nil {
		return domain.Session{}, fmt.Errorf("get or create user: %w", err)
	}
	token := uuid.NewString()
	sessionID, err := s.store.CreateSession(ctx, userID, token)
	if err != nil {
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}
	log.Info().Int64("user_id", userID).Int64("session_id", sessionID).Msg("session started")
	return domain.Session{ID: sessionID, UserID: userID, Token: token}, nil
}

type FeedbackInput struct {
	SessionToken string // resolves UserID and SessionID when set
	UserID       int64
	SessionID    int64
	HotelID      string
	RestaurantID string
	Rating       int
	Comment      string
}

// SubmitFeedback stores one rating. Rows are append-only.
func (s *FeedbackService) SubmitFeedback(ctx context.Context, in FeedbackInput) error {
	if in.Rating < 1 || in.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5, got %d", domain.ErrInvalidInput, in.Rating)
	}
	if tok := strings.TrimSpace(in.SessionToken); tok != "" {
		sess, err := s.store.GetSession(ctx, tok)
		if err != nil {
			return fmt.Errorf("session %q: %w", tok, err)
		}
		in.UserID, in.SessionID = sess.UserID, sess.ID
	}
	if in.UserID <= 0 || in.SessionID <= 0 {
		return fmt.Errorf("%w: user and session are required", domain.ErrInvalidInput)
	}
	hotelID := strings.TrimSpace(in.HotelID)
	if hotelID == "" {
		return fmt.Errorf("%w: hotel id is required", domain.ErrInvalidInput)
	}

	f := domain.Feedback{
		UserID:    in.UserID,
		SessionID: in.SessionID,
		HotelID:   hotelID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}
	if rid := strings.TrimSpace(in.RestaurantID); rid != "" {
		f.RestaurantID = &rid
	}
	if err := s.store.InsertFeedback(ctx, f); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

const maxHistory = 100

// History lists a user's stored feedback, newest first.
func (s *FeedbackService) History(ctx context.Context, userID int64, limit int) ([]domain.Feedback, error) {
	if limit <= 0 || limit > maxHistory {
		limit = maxHistory
	}
	return s.store.ListFeedback(ctx, userID, limit)
}

// Hint implements HintSource.
func (s *FeedbackService) Hint(ctx context.Context, userID int64) (string, error) {
	return s.hints.Hint(ctx, userID)
}
