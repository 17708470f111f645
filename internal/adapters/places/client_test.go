package places_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"hotelrec/internal/adapters/places"
	"hotelrec/internal/domain"
)

const textSearchBody = `{
  "status": "OK",
  "results": [
    {"place_id": "p1", "name": "Sea Breeze", "rating": 4.6, "price_level": 2, "user_ratings_total": 120,
     "formatted_address": "Lara, Antalya", "geometry": {"location": {"lat": 36.85, "lng": 30.85}}},
    {"place_id": "p2", "name": "Too Pricey", "rating": 4.9, "price_level": 4,
     "geometry": {"location": {"lat": 36.8, "lng": 30.7}}},
    {"place_id": "p3", "name": "Low Rated", "rating": 3.1,
     "geometry": {"location": {"lat": 36.8, "lng": 30.7}}},
    {"place_id": "p4", "name": "No Coords", "rating": 4.8},
    {"place_id": "p5", "name": "Unknown Level", "rating": 4.2, "vicinity": "Kaleici",
     "geometry": {"location": {"lat": 36.88, "lng": 30.70}}}
  ]
}`

func TestClient_SearchHotels_Filters(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/textsearch/json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "hotels in Antalya" {
			t.Errorf("unexpected query %q", got)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing key")
		}
		_, _ = w.Write([]byte(textSearchBody))
	}))
	defer ts.Close()

	cl, err := places.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	lvl := 2
	got, err := cl.SearchHotels(context.Background(), domain.HotelSearch{City: "Antalya", MinRating: 4.0, MaxPriceLevel: &lvl, Limit: 5})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 || got[0].ID != "p1" || got[1].ID != "p5" {
		t.Fatalf("unexpected hotels: %+v", got)
	}
	if got[0].Score != 92 || got[0].Price != nil || got[0].Coords == nil || got[0].Location != "Lara, Antalya" {
		t.Fatalf("unexpected candidate: %+v", got[0])
	}
	if got[1].Location != "Kaleici" {
		t.Fatalf("expected vicinity fallback, got %q", got[1].Location)
	}
}

func TestClient_SearchRestaurantsNear(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("location") != "36.85,30.85" || q.Get("radius") != "1500" || q.Get("type") != "restaurant" {
			t.Errorf("unexpected params %v", q)
		}
		if q.Get("keyword") != "" {
			t.Errorf("keyword must be absent without cuisine")
		}
		_, _ = w.Write([]byte(`{"status":"OK","results":[
			{"place_id":"r1","name":"Meze","rating":4.4,"vicinity":"Lara"},
			{"place_id":"r2","name":"Balik","vicinity":"Port"}]}`))
	}))
	defer ts.Close()

	cl, _ := places.New(ts.URL, "test-key", 100)
	got, err := cl.SearchRestaurantsNear(context.Background(), domain.NearbySearch{Lat: 36.85, Lng: 30.85, RadiusM: 1500, Limit: 3})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 || got[0].Cuisine != places.DefaultCuisineLabel || got[1].Rating != 0 {
		t.Fatalf("unexpected restaurants: %+v", got)
	}
}

func TestClient_StatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key"}`))
	}))
	defer ts.Close()

	cl, _ := places.New(ts.URL, "test-key", 100)
	_, err := cl.SearchHotels(context.Background(), domain.HotelSearch{City: "X"})
	var se *places.StatusError
	if !errors.As(err, &se) || se.Status != "REQUEST_DENIED" {
		t.Fatalf("expected StatusError, got %v", err)
	}
}

func TestClient_SingleAttemptOnServerError(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	cl, _ := places.New(ts.URL, "test-key", 100)
	start := time.Now()
	_, err := cl.SearchHotels(context.Background(), domain.HotelSearch{City: "X"})
	if err == nil {
		t.Fatalf("expected error on 503")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected exactly one call, got %d", n)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("failed call must return at once, took %v", time.Since(start))
	}
}

func TestClient_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	cl, _ := places.New(ts.URL, "test-key", 100)
	_, err := cl.SearchRestaurantsNear(context.Background(), domain.NearbySearch{RadiusM: 100})
	if !errors.Is(err, places.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestNew_RequiresKey(t *testing.T) {
	if _, err := places.New("http://x", "", 1); err == nil {
		t.Fatalf("expected error without key")
	}
}
