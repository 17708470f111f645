// internal/adapters/places/client.go
package places

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"hotelrec/internal/adapters/observability"
	"hotelrec/internal/domain"
)

// DefaultCuisineLabel is used for nearby results when no cuisine was asked for.
const DefaultCuisineLabel = "restaurant"

type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("places API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- Public API ----

// SearchHotels runs a text search for "hotels in <city>" and keeps results
// with rating >= MinRating, price level <= MaxPriceLevel (unknown levels
// pass) and known coordinates, up to Limit.
func (c *Client) SearchHotels(ctx context.Context, q domain.HotelSearch) ([]domain.HotelCandidate, error) {
	v := url.Values{}
	v.Set("query", "hotels in "+q.City)
	var resp searchResponse
	if err := c.get(ctx, "textsearch", v, &resp); err != nil {
		return nil, err
	}

	out := []domain.HotelCandidate{}
	for _, it := range resp.Results {
		rating := deref(it.Rating)
		if rating < q.MinRating || !priceLevelOK(it.PriceLevel, q.MaxPriceLevel) {
			continue
		}
		if it.Geometry.Location.Lat == nil || it.Geometry.Location.Lng == nil {
			continue
		}
		loc := it.FormattedAddress
		if loc == "" {
			loc = it.Vicinity
		}
		out = append(out, domain.HotelCandidate{
			ID:            it.PlaceID,
			Name:          it.Name,
			City:          q.City,
			Rating:        rating,
			Location:      loc,
			Score:         math.Round(rating*20*10) / 10,
			Justification: "High rating / popularity according to Google Places.",
			Coords:        &domain.Coords{Lat: *it.Geometry.Location.Lat, Lng: *it.Geometry.Location.Lng},
			PriceLevel:    it.PriceLevel,
			RatingsTotal:  it.UserRatingsTotal,
		})
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

// SearchRestaurantsNear runs a nearby search of type restaurant around the
// given coordinates, with the cuisine as keyword when present.
func (c *Client) SearchRestaurantsNear(ctx context.Context, q domain.NearbySearch) ([]domain.RestaurantCandidate, error) {
	v := url.Values{}
	v.Set("location", strconv.FormatFloat(q.Lat, 'f', -1, 64)+","+strconv.FormatFloat(q.Lng, 'f', -1, 64))
	v.Set("radius", strconv.Itoa(q.RadiusM))
	v.Set("type", "restaurant")
	label := DefaultCuisineLabel
	if kw := strings.TrimSpace(q.Cuisine); kw != "" {
		v.Set("keyword", kw)
		label = kw
	}
	var resp searchResponse
	if err := c.get(ctx, "nearbysearch", v, &resp); err != nil {
		return nil, err
	}

	out := []domain.RestaurantCandidate{}
	for _, it := range resp.Results {
		out = append(out, domain.RestaurantCandidate{
			ID:           it.PlaceID,
			Name:         it.Name,
			Cuisine:      label,
			Rating:       deref(it.Rating),
			Location:     it.Vicinity,
			PriceLevel:   it.PriceLevel,
			RatingsTotal: it.UserRatingsTotal,
		})
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

// ---- Internals ----

var (
	ErrUnauthorized = errors.New("places: unauthorized")
	ErrForbidden    = errors.New("places: forbidden")
)

// StatusError is a non-OK "status" field in an HTTP 200 places response.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("places %s: %s", e.Status, e.Message)
}

type searchResponse struct {
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message"`
	Results      []result `json:"results"`
}

type result struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Rating           *float64 `json:"rating"`
	PriceLevel       *int     `json:"price_level"`
	UserRatingsTotal *int     `json:"user_ratings_total"`
	FormattedAddress string   `json:"formatted_address"`
	Vicinity         string   `json:"vicinity"`
	Geometry         struct {
		Location struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

func priceLevelOK(level, maxLevel *int) bool {
	if maxLevel == nil || level == nil {
		return true
	}
	return *level <= *maxLevel
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// get performs one rate-limited GET, decodes the JSON body into out and
// checks the places "status" field. Failed calls are not retried: the caller
// falls back to the dataset on any error.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out *searchResponse) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	params.Set("key", c.key)
	u := fmt.Sprintf("%s/%s/json?%s", c.base, endpoint, params.Encode())

	start := time.Now()
	status := 0
	defer func() { observability.ObserveExternal("places", endpoint, status, time.Since(start)) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "hotelrec/1.0")

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("places %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode places response: %w", err)
		}
		if out.Status != "OK" && out.Status != "ZERO_RESULTS" {
			return &StatusError{Status: out.Status, Message: out.ErrorMessage}
		}
		return nil
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	default:
		// a small error body helps diagnose quota and key problems
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("places %s: bad status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(b)))
	}
}
