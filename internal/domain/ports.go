package domain

import "context"

type FeedbackStore interface {
	// Write paths
	GetOrCreateUser(ctx context.Context, identifier string) (int64, error)
	CreateSession(ctx context.Context, userID int64, token string) (int64, error)
	InsertFeedback(ctx context.Context, f Feedback) error

	// Read paths
	GetRecentFeedback(ctx context.Context, userID int64, limit int) ([]FeedbackEntry, error)
	ListFeedback(ctx context.Context, userID int64, limit int) ([]Feedback, error)
	GetSession(ctx context.Context, token string) (Session, error)
}

type PlacesClient interface {
	SearchHotels(ctx context.Context, q HotelSearch) ([]HotelCandidate, error)
	SearchRestaurantsNear(ctx context.Context, q NearbySearch) ([]RestaurantCandidate, error)
}

// TextGenerator is a language-model provider.
type TextGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type HotelSearch struct {
	City          string
	MinRating     float64
	MaxPriceLevel *int
	Limit         int
}

type NearbySearch struct {
	Lat, Lng float64
	Cuisine  string // optional keyword
	RadiusM  int
	Limit    int
}

type GenerateRequest struct {
	System         string
	Prompt         string
	Model          string
	Temperature    float64
	MaxTokens      int
	ResponseFormat string // "" or "json"
}

type GenerateResponse struct {
	Text     string
	Model    string
	Provider string
}
