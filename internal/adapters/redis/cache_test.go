package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "hotelrec/internal/adapters/redis"
	"hotelrec/internal/domain"
)

func TestCache_SetGetDel(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	var out []domain.HotelCandidate
	ok, err := c.Get(ctx, "places:hotels:antalya", &out)
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	in := []domain.HotelCandidate{{ID: "p1", Name: "Sea Breeze", Rating: 4.6, Coords: &domain.Coords{Lat: 1, Lng: 2}}}
	if err := c.Set(ctx, "places:hotels:antalya", in, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("hotelrec:places:hotels:antalya") {
		t.Fatalf("expected prefixed key in redis")
	}

	ok, err = c.Get(ctx, "places:hotels:antalya", &out)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(out) != 1 || out[0].ID != "p1" || out[0].Coords == nil || out[0].Coords.Lng != 2 {
		t.Fatalf("unexpected cached value: %+v", out)
	}

	mr.FastForward(2 * time.Minute)
	if ok, _ := c.Get(ctx, "places:hotels:antalya", &out); ok {
		t.Fatalf("expected expiry after ttl")
	}

	_ = c.Set(ctx, "k", "v", 60)
	if err := c.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if mr.Exists("hotelrec:k") {
		t.Fatalf("expected key deleted")
	}
}
