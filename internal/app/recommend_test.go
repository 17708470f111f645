package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"hotelrec/internal/app"
	"hotelrec/internal/dataset"
	"hotelrec/internal/domain"
	"hotelrec/internal/ranking"
)

// ---- fakes ----

type fakeGen struct {
	text  string
	err   error
	calls int
}

func (g *fakeGen) Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResponse, error) {
	g.calls++
	if g.err != nil {
		return domain.GenerateResponse{}, g.err
	}
	return domain.GenerateResponse{Text: g.text, Model: "fake", Provider: "fake"}, nil
}

type fakePlaces struct {
	hotels      []domain.HotelCandidate
	restaurants []domain.RestaurantCandidate
	err         error
	hotelCalls  int
	nearCalls   int
	lastSearch  domain.HotelSearch
}

func (p *fakePlaces) SearchHotels(ctx context.Context, q domain.HotelSearch) ([]domain.HotelCandidate, error) {
	p.hotelCalls++
	p.lastSearch = q
	return p.hotels, p.err
}

func (p *fakePlaces) SearchRestaurantsNear(ctx context.Context, q domain.NearbySearch) ([]domain.RestaurantCandidate, error) {
	p.nearCalls++
	return p.restaurants, p.err
}

type fakeCache struct {
	store map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

type fakeHints struct {
	hint string
	err  error
}

func (h fakeHints) Hint(ctx context.Context, userID int64) (string, error) { return h.hint, h.err }

func testData() *dataset.Dataset {
	return &dataset.Dataset{
		Hotels: []domain.Hotel{
			{ID: 1, Name: "Lara Palace", City: "Antalya", Price: 1800, Rating: 4.6},
			{ID: 2, Name: "Kaleiçi Konak", City: "Antalya", Price: 950, Rating: 4.3},
			{ID: 3, Name: "Konyaaltı Resort", City: "Antalya", Price: 3200, Rating: 4.8},
			{ID: 4, Name: "Budget Stay", City: "Antalya", Price: 600, Rating: 3.7},
			{ID: 5, Name: "Bosphorus View", City: "İstanbul", Price: 1500, Rating: 4.7},
		},
		Restaurants: []domain.Restaurant{
			{ID: 101, Name: "Balıkçı", Cuisine: "Deniz Ürünleri", Rating: 4.5, NearIDs: "1,3"},
			{ID: 102, Name: "Meyhane", Cuisine: "Türk Mutfağı", Rating: 4.4, NearIDs: "2"},
			{ID: 103, Name: "Pizza", Cuisine: "İtalyan", Rating: 4.1, NearIDs: "1"},
			{ID: 104, Name: "Ocakbaşı", Cuisine: "Kebap", Rating: 4.6, NearIDs: "1,2,4"},
		},
	}
}

func ids[T ranking.Candidate](items []T) []string { return ranking.IDs(items) }

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var antalya = app.HotelQuery{City: "antalya", MaxPrice: 2000, MinRating: 4.0}

// ---- tests ----

func TestRecommendHotels_DatasetWithoutRerank(t *testing.T) {
	svc := app.NewRecommendationService(testData(), nil, nil, nil, nil, app.Options{
		Rerank: ranking.DefaultRerankConfig(false),
	})

	res, err := svc.RecommendHotels(context.Background(), antalya)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if res.Source != app.SourceDataset || res.Reranked {
		t.Fatalf("unexpected source/reranked: %+v", res)
	}
	if got := ids(res.Items); !equalIDs(got, []string{"1", "2"}) {
		t.Fatalf("ids = %v", got)
	}
	if res.FallbackReason != "" {
		t.Fatalf("disabled rerank must not report a failure, got %q", res.FallbackReason)
	}
	if res.Metrics.Count != 2 || res.Metrics.Diversity != 1 || res.Metrics.Repetition != 0 {
		t.Fatalf("metrics = %+v", res.Metrics)
	}
}

func TestRecommendHotels_RerankUsedWithReason(t *testing.T) {
	gen := &fakeGen{text: `{"hotels":[{"hotel_id":2,"score":90,"reason":"quiet old town"}]}`}
	svc := app.NewRecommendationService(testData(), nil, gen, nil, nil, app.Options{
		Rerank: ranking.DefaultRerankConfig(true),
	})

	res, err := svc.RecommendHotels(context.Background(), antalya)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !res.Reranked || gen.calls != 1 {
		t.Fatalf("expected one rerank call, reranked=%v calls=%d", res.Reranked, gen.calls)
	}
	if got := ids(res.Items); !equalIDs(got, []string{"2", "1"}) {
		t.Fatalf("ids = %v", got)
	}
	if res.Items[0].Justification != "quiet old town" {
		t.Fatalf("justification = %q", res.Items[0].Justification)
	}
	if res.Items[1].Justification == "" {
		t.Fatal("backfilled hotel lost its local justification")
	}
}

func TestRecommendHotels_RerankFailureFallsBack(t *testing.T) {
	gen := &fakeGen{err: errors.New("boom")}
	svc := app.NewRecommendationService(testData(), nil, gen, nil, nil, app.Options{
		Rerank: ranking.DefaultRerankConfig(true),
	})

	res, err := svc.RecommendHotels(context.Background(), antalya)
	if err != nil {
		t.Fatalf("rerank failure must not surface, got %v", err)
	}
	if res.Reranked || res.FallbackReason == "" {
		t.Fatalf("expected fallback with reason, got %+v", res)
	}
	if got := ids(res.Items); !equalIDs(got, []string{"1", "2"}) {
		t.Fatalf("fallback order = %v", got)
	}
}

func TestRecommendHotels_NoMatchIsEmpty(t *testing.T) {
	svc := app.NewRecommendationService(testData(), nil, nil, nil, nil, app.Options{})

	res, err := svc.RecommendHotels(context.Background(), app.HotelQuery{City: "Ankara", MaxPrice: 5000})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if res.Items == nil || len(res.Items) != 0 {
		t.Fatalf("want empty non-nil list, got %#v", res.Items)
	}
	if res.Metrics.Diversity != 0 || res.Metrics.Repetition != 0 {
		t.Fatalf("metrics = %+v", res.Metrics)
	}
}

func TestRecommendHotels_CityRequired(t *testing.T) {
	svc := app.NewRecommendationService(testData(), nil, nil, nil, nil, app.Options{})
	_, err := svc.RecommendHotels(context.Background(), app.HotelQuery{City: "  "})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestRecommendHotels_PlacesFirstThenCache(t *testing.T) {
	places := &fakePlaces{hotels: []domain.HotelCandidate{
		{ID: "ChIJa", Name: "Provider Hotel", City: "Antalya", Rating: 4.5, Score: 90, Coords: &domain.Coords{Lat: 36.8, Lng: 30.7}},
	}}
	cache := &fakeCache{}
	gen := &fakeGen{}
	svc := app.NewRecommendationService(testData(), places, gen, cache, nil, app.Options{
		Rerank:   ranking.DefaultRerankConfig(true),
		CacheTTL: time.Minute,
	})

	for i := 0; i < 2; i++ {
		res, err := svc.RecommendHotels(context.Background(), antalya)
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		if res.Source != app.SourcePlaces || len(res.Items) != 1 || res.Items[0].ID != "ChIJa" {
			t.Fatalf("unexpected result: %+v", res)
		}
	}
	if places.hotelCalls != 1 {
		t.Fatalf("want 1 provider call (second from cache), got %d", places.hotelCalls)
	}
	if gen.calls != 0 {
		t.Fatalf("provider hotels are not reranked, got %d generate calls", gen.calls)
	}
	if places.lastSearch.MaxPriceLevel == nil || *places.lastSearch.MaxPriceLevel != 2 {
		t.Fatalf("price level = %v", places.lastSearch.MaxPriceLevel)
	}
}

func TestRecommendHotels_PlacesErrorFallsBackToDataset(t *testing.T) {
	places := &fakePlaces{err: errors.New("REQUEST_DENIED")}
	svc := app.NewRecommendationService(testData(), places, nil, nil, nil, app.Options{})

	res, err := svc.RecommendHotels(context.Background(), antalya)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if res.Source != app.SourceDataset || len(res.Items) != 2 {
		t.Fatalf("unexpected fallback result: %+v", res)
	}
}

func TestRecommendRestaurants_DatasetWithRerank(t *testing.T) {
	gen := &fakeGen{text: `{"restaurants":[{"restoran_id":"103","reason":"pizza"},{"restaurant_id":999}]}`}
	svc := app.NewRecommendationService(testData(), nil, gen, nil, nil, app.Options{
		RestaurantTopK: 2,
		Rerank:         ranking.DefaultRerankConfig(true),
	})

	res, err := svc.RecommendRestaurants(context.Background(), app.RestaurantQuery{
		Hotel: domain.HotelCandidate{ID: "1", Name: "Lara Palace"},
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !res.Reranked {
		t.Fatalf("expected rerank used: %+v", res)
	}
	// 103 picked, 999 dropped, then backfill by rating: 104 (4.6)
	if got := ids(res.Items); !equalIDs(got, []string{"103", "104"}) {
		t.Fatalf("ids = %v", got)
	}
}

func TestRecommendRestaurants_CuisineFilter(t *testing.T) {
	svc := app.NewRecommendationService(testData(), nil, nil, nil, nil, app.Options{})

	res, err := svc.RecommendRestaurants(context.Background(), app.RestaurantQuery{
		Hotel:   domain.HotelCandidate{ID: "1"},
		Cuisine: "ITALYAN",
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if got := ids(res.Items); !equalIDs(got, []string{"103"}) {
		t.Fatalf("ids = %v", got)
	}
}

func TestRecommendRestaurants_PlacesNeedsCoords(t *testing.T) {
	places := &fakePlaces{restaurants: []domain.RestaurantCandidate{{ID: "p1", Name: "Nearby", Cuisine: "restaurant"}}}
	svc := app.NewRecommendationService(testData(), places, nil, nil, nil, app.Options{})

	withCoords, err := svc.RecommendRestaurants(context.Background(), app.RestaurantQuery{
		Hotel: domain.HotelCandidate{ID: "ChIJa", Coords: &domain.Coords{Lat: 1, Lng: 2}},
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if withCoords.Source != app.SourcePlaces || len(withCoords.Items) != 1 {
		t.Fatalf("unexpected provider result: %+v", withCoords)
	}

	without, err := svc.RecommendRestaurants(context.Background(), app.RestaurantQuery{
		Hotel: domain.HotelCandidate{ID: "2"},
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if without.Source != app.SourceDataset || places.nearCalls != 1 {
		t.Fatalf("hotel without coords must use dataset: %+v calls=%d", without, places.nearCalls)
	}
	if got := ids(without.Items); !equalIDs(got, []string{"104", "102"}) {
		t.Fatalf("ids = %v", got)
	}
}

func TestRecommendRestaurants_PlacesErrorFallsBackToDataset(t *testing.T) {
	places := &fakePlaces{err: errors.New("OVER_QUERY_LIMIT")}
	svc := app.NewRecommendationService(testData(), places, nil, nil, nil, app.Options{})

	res, err := svc.RecommendRestaurants(context.Background(), app.RestaurantQuery{
		Hotel: domain.HotelCandidate{ID: "1", Coords: &domain.Coords{Lat: 36.85, Lng: 30.85}},
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if res.Source != app.SourceDataset {
		t.Fatalf("source = %q", res.Source)
	}
	if got := ids(res.Items); !equalIDs(got, []string{"104", "101", "103"}) {
		t.Fatalf("ids = %v", got)
	}

	// provider hotel ids have no near-ids rows
	res, err = svc.RecommendRestaurants(context.Background(), app.RestaurantQuery{
		Hotel: domain.HotelCandidate{ID: "ChIJ-place", Coords: &domain.Coords{}},
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if res.Items == nil || len(res.Items) != 0 {
		t.Fatalf("want empty non-nil list, got %v", res.Items)
	}
}

func TestRecommend_FullFlow(t *testing.T) {
	svc := app.NewRecommendationService(testData(), nil, nil, nil, fakeHints{hint: "prioritize high-rated options"}, app.Options{})

	rec, err := svc.Recommend(context.Background(), app.Request{UserID: 7, City: "Antalya", MaxPrice: 2000, MinRating: 4})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if rec.ProfileHint != "prioritize high-rated options" {
		t.Fatalf("hint = %q", rec.ProfileHint)
	}
	if len(rec.Restaurants) != len(rec.Hotels.Items) {
		t.Fatalf("want restaurants for each hotel, got %d for %d", len(rec.Restaurants), len(rec.Hotels.Items))
	}
	for i, hr := range rec.Restaurants {
		if hr.HotelID != rec.Hotels.Items[i].ID {
			t.Fatalf("restaurant block %d belongs to %s, want %s", i, hr.HotelID, rec.Hotels.Items[i].ID)
		}
	}
	if rec.Restaurants[0].Restaurants.Items[0].ID != "104" {
		t.Fatalf("top restaurant for hotel 1 = %s", rec.Restaurants[0].Restaurants.Items[0].ID)
	}
}

func TestRecommend_HintErrorIsNotFatal(t *testing.T) {
	svc := app.NewRecommendationService(testData(), nil, nil, nil, fakeHints{err: errors.New("db down")}, app.Options{})

	rec, err := svc.Recommend(context.Background(), app.Request{UserID: 7, City: "Antalya", MaxPrice: 2000})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if rec.ProfileHint != "" || len(rec.Hotels.Items) == 0 {
		t.Fatalf("unexpected: %+v", rec)
	}
}

func TestPriceLevel(t *testing.T) {
	cases := []struct {
		price float64
		want  int
	}{
		{500, 1}, {1000, 1}, {1001, 2}, {2500, 2}, {4000, 3}, {5000, 3}, {5001, 4},
	}
	for _, c := range cases {
		if got := app.PriceLevel(c.price); got != c.want {
			t.Errorf("PriceLevel(%v) = %d, want %d", c.price, got, c.want)
		}
	}
}
