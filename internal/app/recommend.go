package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hotelrec/internal/adapters/observability"
	"hotelrec/internal/dataset"
	"hotelrec/internal/domain"
	"hotelrec/internal/ranking"
)

const (
	SourcePlaces  = "places"
	SourceDataset = "dataset"
)

// Options carries the feature toggles and sizes a RecommendationService
// runs with. Nothing here is read from the environment at call time.
type Options struct {
	HotelTopK      int
	RestaurantTopK int
	Rerank         ranking.RerankConfig
	RadiusM        int
	CacheTTL       time.Duration
}

type RecommendationService struct {
	data   *dataset.Dataset
	places domain.PlacesClient // nil disables provider mode
	gen    domain.TextGenerator
	cache  domain.Cache // optional
	hints  HintSource
	opt    Options
}

// HintSource produces the profile hint for a user.
type HintSource interface {
	Hint(ctx context.Context, userID int64) (string, error)
}

func NewRecommendationService(ds *dataset.Dataset, places domain.PlacesClient, gen domain.TextGenerator,
	cache domain.Cache, hints HintSource, opt Options) *RecommendationService {
	if ds == nil {
		ds = &dataset.Dataset{}
	}
	if opt.HotelTopK <= 0 {
		opt.HotelTopK = 5
	}
	if opt.RestaurantTopK <= 0 {
		opt.RestaurantTopK = 3
	}
	if opt.RadiusM <= 0 {
		opt.RadiusM = 1500
	}
	return &RecommendationService{data: ds, places: places, gen: gen, cache: cache, hints: hints, opt: opt}
}

type HotelQuery struct {
	City        string
	MaxPrice    float64
	MinRating   float64
	ProfileHint string
	TopK        int
}

type HotelResult struct {
	Items          []domain.HotelCandidate `json:"items"`
	Source         string                  `json:"source"`
	Reranked       bool                    `json:"reranked"`
	FallbackReason string                  `json:"fallback_reason,omitempty"`
	Metrics        ranking.ListMetrics     `json:"metrics"`
}

type RestaurantQuery struct {
	Hotel       domain.HotelCandidate
	Cuisine     string
	ProfileHint string
	TopK        int
}

type RestaurantResult struct {
	Items          []domain.RestaurantCandidate `json:"items"`
	Source         string                       `json:"source"`
	Reranked       bool                         `json:"reranked"`
	FallbackReason string                       `json:"fallback_reason,omitempty"`
}

// RecommendHotels returns up to TopK hotels. With a places client it asks
// the provider first and drops to the dataset when that call fails. An
// empty Items is a valid "nothing matched" answer, not an error.
func (s *RecommendationService) RecommendHotels(ctx context.Context, q HotelQuery) (HotelResult, error) {
	if strings.TrimSpace(q.City) == "" {
		return HotelResult{}, fmt.Errorf("%w: city is required", domain.ErrInvalidInput)
	}
	topK := q.TopK
	if topK <= 0 {
		topK = s.opt.HotelTopK
	}

	if s.places != nil {
		items, err := s.placesHotels(ctx, q, topK)
		if err == nil {
			return hotelResult(items, SourcePlaces, false, nil), nil
		}
		if ctx.Err() != nil {
			return HotelResult{}, ctx.Err()
		}
		log.Warn().Err(err).Str("city", q.City).Msg("places hotel search failed; using dataset")
	}

	filtered := ranking.FilterHotels(s.data.Hotels, ranking.HotelFilter{
		City: q.City, MaxPrice: q.MaxPrice, MinRating: q.MinRating,
	})
	if len(filtered) == 0 {
		return hotelResult(nil, SourceDataset, false, nil), nil
	}
	scored := ranking.ScoreHotels(filtered, topK, q.ProfileHint)

	out := ranking.Rerank(ctx, s.gen, s.opt.Rerank, ranking.RerankRequest[domain.HotelCandidate]{
		Kind:        ranking.HotelKind,
		Context:     ranking.HotelContext(q.City, q.MaxPrice, q.MinRating),
		Candidates:  scored,
		ProfileHint: q.ProfileHint,
		TopK:        topK,
	})
	observeRerank(ranking.HotelKind.Name, out.Used, out.Reason)
	items := out.Items
	if out.Used {
		items = withHotelReasons(items, out.Reasons)
	}
	return hotelResult(items, SourceDataset, out.Used, out.Reason), nil
}

// RecommendRestaurants picks restaurants for one hotel. Provider mode needs
// the hotel's coordinates; without them, or when the nearby search fails,
// the dataset near-ids table is used.
func (s *RecommendationService) RecommendRestaurants(ctx context.Context, q RestaurantQuery) (RestaurantResult, error) {
	topK := q.TopK
	if topK <= 0 {
		topK = s.opt.RestaurantTopK
	}

	if s.places != nil && q.Hotel.Coords != nil {
		items, err := s.placesRestaurants(ctx, *q.Hotel.Coords, q.Cuisine, topK)
		if err == nil {
			return RestaurantResult{Items: nonNil(items), Source: SourcePlaces}, nil
		}
		if ctx.Err() != nil {
			return RestaurantResult{}, ctx.Err()
		}
		// place ids never appear in the near-ids table, so this is
		// usually empty for provider hotels
		log.Warn().Err(err).Str("hotel_id", q.Hotel.ID).Msg("places restaurant search failed; using dataset")
	}

	cands := ranking.RestaurantCandidates(s.data.Restaurants, q.Hotel.ID, q.Cuisine, topK)
	out := ranking.Rerank(ctx, s.gen, s.opt.Rerank, ranking.RerankRequest[domain.RestaurantCandidate]{
		Kind:        ranking.RestaurantKind,
		Context:     ranking.FoodContext(q.Cuisine),
		Anchor:      hotelAnchor(q.Hotel),
		Candidates:  cands,
		ProfileHint: q.ProfileHint,
		TopK:        topK,
	})
	if len(cands) > 0 {
		observeRerank(ranking.RestaurantKind.Name, out.Used, out.Reason)
	}
	return RestaurantResult{
		Items:          nonNil(out.Items),
		Source:         SourceDataset,
		Reranked:       out.Used,
		FallbackReason: reasonText(out.Reason),
	}, nil
}

type Request struct {
	UserID    int64
	City      string
	MaxPrice  float64
	MinRating float64
	Cuisine   string
}

type HotelRestaurants struct {
	HotelID     string           `json:"hotel_id"`
	HotelName   string           `json:"hotel_name"`
	Restaurants RestaurantResult `json:"restaurants"`
}

type Recommendation struct {
	ProfileHint string             `json:"profile_hint"`
	Hotels      HotelResult        `json:"hotels"`
	Restaurants []HotelRestaurants `json:"restaurants"`
}

// Recommend runs the whole flow for one user request: profile hint, hotels,
// then restaurants for each chosen hotel in hotel order.
func (s *RecommendationService) Recommend(ctx context.Context, r Request) (Recommendation, error) {
	hint := s.profileHint(ctx, r.UserID)

	hotels, err := s.RecommendHotels(ctx, HotelQuery{
		City: r.City, MaxPrice: r.MaxPrice, MinRating: r.MinRating, ProfileHint: hint,
	})
	if err != nil {
		return Recommendation{}, err
	}

	rec := Recommendation{
		ProfileHint: hint,
		Hotels:      hotels,
		Restaurants: make([]HotelRestaurants, 0, len(hotels.Items)),
	}
	for _, h := range hotels.Items {
		rs, err := s.RecommendRestaurants(ctx, RestaurantQuery{Hotel: h, Cuisine: r.Cuisine, ProfileHint: hint})
		if err != nil {
			return Recommendation{}, err
		}
		rec.Restaurants = append(rec.Restaurants, HotelRestaurants{HotelID: h.ID, HotelName: h.Name, Restaurants: rs})
	}

	log.Info().
		Int64("user_id", r.UserID).
		Str("city", r.City).
		Str("source", hotels.Source).
		Int("hotels", len(hotels.Items)).
		Bool("reranked", hotels.Reranked).
		Float64("diversity", hotels.Metrics.Diversity).
		Msg("recommendation served")
	return rec, nil
}

// profileHint never fails the request; a store error yields the neutral hint.
func (s *RecommendationService) profileHint(ctx context.Context, userID int64) string {
	if s.hints == nil || userID <= 0 {
		return ""
	}
	h, err := s.hints.Hint(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("profile hint unavailable")
		return ""
	}
	return h
}

func (s *RecommendationService) placesHotels(ctx context.Context, q HotelQuery, topK int) ([]domain.HotelCandidate, error) {
	level := PriceLevel(q.MaxPrice)
	search := domain.HotelSearch{City: q.City, MinRating: q.MinRating, MaxPriceLevel: &level, Limit: topK}
	key := fmt.Sprintf("places:hotels:%s:%g:%d:%d", cacheToken(q.City), q.MinRating, level, topK)

	var items []domain.HotelCandidate
	if s.cacheGet(ctx, key, &items) {
		return items, nil
	}
	items, err := s.places.SearchHotels(ctx, search)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, items)
	return items, nil
}

func (s *RecommendationService) placesRestaurants(ctx context.Context, at domain.Coords, cuisine string, topK int) ([]domain.RestaurantCandidate, error) {
	key := fmt.Sprintf("places:restaurants:%.5f:%.5f:%s:%d:%d", at.Lat, at.Lng, cacheToken(cuisine), s.opt.RadiusM, topK)

	var items []domain.RestaurantCandidate
	if s.cacheGet(ctx, key, &items) {
		return items, nil
	}
	items, err := s.places.SearchRestaurantsNear(ctx, domain.NearbySearch{
		Lat: at.Lat, Lng: at.Lng, Cuisine: cuisine, RadiusM: s.opt.RadiusM, Limit: topK,
	})
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, items)
	return items, nil
}

func (s *RecommendationService) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("cache get failed")
		return false
	}
	return ok
}

func (s *RecommendationService) cacheSet(ctx context.Context, key string, v any) {
	if s.cache == nil || s.opt.CacheTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, v, int(s.opt.CacheTTL.Seconds())); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("cache set failed")
	}
}

func hotelResult(items []domain.HotelCandidate, source string, reranked bool, reason error) HotelResult {
	items = nonNil(items)
	m := ranking.ComputeMetrics(ranking.IDs(items))
	if len(items) > 0 {
		observability.ObserveDiversity(ranking.HotelKind.Name, m.Diversity)
	}
	return HotelResult{
		Items:          items,
		Source:         source,
		Reranked:       reranked,
		FallbackReason: reasonText(reason),
		Metrics:        m,
	}
}

func observeRerank(kind string, used bool, reason error) {
	outcome := "fallback"
	switch {
	case used:
		outcome = "used"
	case errors.Is(reason, ranking.ErrRerankDisabled):
		outcome = "disabled"
	}
	observability.ObserveRerank(kind, outcome)
}

func reasonText(err error) string {
	if err == nil || errors.Is(err, ranking.ErrRerankDisabled) {
		return ""
	}
	return err.Error()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
