package shared_test

import (
	"testing"
	"time"

	"hotelrec/internal/shared"
)

func TestLoad_DefaultsAndToggles(t *testing.T) {
	t.Setenv("LLM_PROVIDER", " Gemini ")
	t.Setenv("LLM_API_KEY", "k")
	t.Setenv("PLACES_API_KEY", "")
	t.Setenv("CACHE_TTL_SECONDS", "60")
	t.Setenv("HOTEL_TOP_K", "not-a-number")

	c := shared.Load()
	if c.LLMProvider != "gemini" || !c.RerankEnabled() {
		t.Fatalf("expected gemini with rerank enabled, got %q", c.LLMProvider)
	}
	if c.PlacesEnabled() {
		t.Fatalf("places must be disabled without a key")
	}
	if c.CacheTTL != time.Minute {
		t.Fatalf("cache ttl: %v", c.CacheTTL)
	}
	if c.HotelTopK != 5 || c.RestaurantTopK != 3 {
		t.Fatalf("top k defaults: %d/%d", c.HotelTopK, c.RestaurantTopK)
	}
}

func TestLoad_MockDisablesRerank(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "mock")
	if shared.Load().RerankEnabled() {
		t.Fatalf("mock provider must not rerank")
	}
}
