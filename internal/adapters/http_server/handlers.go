package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"hotelrec/internal/app"
	"hotelrec/internal/domain"
)

type Recommender interface {
	Recommend(ctx context.Context, r app.Request) (app.Recommendation, error)
}

type FeedbackAPI interface {
	StartSession(ctx context.Context, identifier string) (domain.Session, error)
	SubmitFeedback(ctx context.Context, in app.FeedbackInput) error
	History(ctx context.Context, userID int64, limit int) ([]domain.Feedback, error)
	Hint(ctx context.Context, userID int64) (string, error)
}

type Handlers struct {
	Rec Recommender
	FB  FeedbackAPI
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/v1", func(r chi.Router) {
		r.Post("/sessions", h.startSession)
		r.Post("/recommendations", h.recommend)
		r.Post("/feedback", h.submitFeedback)
		r.Get("/users/{id}/profile-hint", h.profileHint)
		r.Get("/users/{id}/feedback", h.listFeedback)
	})
}

/********** request bodies **********/

type sessionRequest struct {
	User string `json:"user" validate:"required,max=191"`
}

type sessionResponse struct {
	SessionID int64  `json:"session_id"`
	UserID    int64  `json:"user_id"`
	Token     string `json:"token"`
}

type recommendRequest struct {
	UserID    int64   `json:"user_id" validate:"gte=0"`
	City      string  `json:"city" validate:"required,max=100"`
	MaxPrice  float64 `json:"max_price" validate:"gt=0"`
	MinRating float64 `json:"min_rating" validate:"gte=0,lte=5"`
	Cuisine   string  `json:"cuisine" validate:"max=100"`
}

type feedbackRequest struct {
	SessionToken string `json:"session_token" validate:"required,uuid"`
	HotelID      string `json:"hotel_id" validate:"required,max=255"`
	RestaurantID string `json:"restaurant_id" validate:"max=255"`
	Rating       int    `json:"rating" validate:"min=1,max=5"`
	Comment      string `json:"comment" validate:"max=2000"`
}

type hintResponse struct {
	UserID int64  `json:"user_id"`
	Hint   string `json:"profile_hint"`
}

type feedbackItem struct {
	ID           int64   `json:"id"`
	SessionID    int64   `json:"session_id"`
	HotelID      string  `json:"hotel_id"`
	RestaurantID *string `json:"restaurant_id,omitempty"`
	Rating       int     `json:"rating"`
	Comment      string  `json:"comment,omitempty"`
	CreatedAt    string  `json:"created_at,omitempty"`
}

/********** validation **********/

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// reports field names as they appear in JSON
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// decode reads a JSON body into dst and validates it. It writes the problem
// response itself and reports false on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return false
	}
	if err := getValidator().Struct(dst); err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Validation failed", validationDetail(err))
		return false
	}
	return true
}

/********** responses **********/

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps service errors onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeProblem(w, http.StatusBadRequest, "Invalid input", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeProblem(w, http.StatusServiceUnavailable, "Unavailable", "request cancelled or timed out")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("marshal response failed")
		writeProblem(w, http.StatusInternalServerError, "Internal error", "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("write response body failed")
	}
}

// writeCacheable answers GETs with a weak ETag and honours If-None-Match.
func writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("marshal response failed")
		writeProblem(w, http.StatusInternalServerError, "Internal error", "")
		return
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`

	w.Header().Set("ETag", etag)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("write response body failed")
	}
}

func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return 0, false
	}
	return id, true
}

/********** handlers **********/

func (h *Handlers) startSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := h.FB.StartSession(r.Context(), req.User)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: sess.ID, UserID: sess.UserID, Token: sess.Token})
}

func (h *Handlers) recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := h.Rec.Recommend(r.Context(), app.Request{
		UserID:    req.UserID,
		City:      req.City,
		MaxPrice:  req.MaxPrice,
		MinRating: req.MinRating,
		Cuisine:   req.Cuisine,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handlers) submitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !decode(w, r, &req) {
		return
	}
	err := h.FB.SubmitFeedback(r.Context(), app.FeedbackInput{
		SessionToken: req.SessionToken,
		HotelID:      req.HotelID,
		RestaurantID: req.RestaurantID,
		Rating:       req.Rating,
		Comment:      req.Comment,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) profileHint(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	hint, err := h.FB.Hint(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, hintResponse{UserID: id, Hint: hint})
}

func (h *Handlers) listFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	limit := 20
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 100 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 100")
			return
		}
		limit = l
	}
	rows, err := h.FB.History(r.Context(), id, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items := make([]feedbackItem, 0, len(rows))
	for _, f := range rows {
		it := feedbackItem{
			ID: f.ID, SessionID: f.SessionID, HotelID: f.HotelID,
			RestaurantID: f.RestaurantID, Rating: f.Rating, Comment: f.Comment,
		}
		if !f.CreatedAt.IsZero() {
			it.CreatedAt = f.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		items = append(items, it)
	}
	writeCacheable(w, r, map[string]any{"items": items})
}
