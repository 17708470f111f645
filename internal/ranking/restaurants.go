package ranking

import (
	"sort"
	"strconv"
	"strings"

	"hotelrec/internal/domain"
	"hotelrec/internal/textnorm"
)

// RerankSlack is the minimum working-set size handed to the reranker so it
// has room to choose.
const RerankSlack = 10

// NearHotel reports whether hotelID is one of the restaurant's near-hotel
// tokens. Tokens are compared whole: "12" never matches "123".
func NearHotel(r domain.Restaurant, hotelID string) bool {
	hotelID = strings.TrimSpace(hotelID)
	if hotelID == "" {
		return false
	}
	for _, tok := range strings.Split(r.NearIDs, ",") {
		if strings.TrimSpace(tok) == hotelID {
			return true
		}
	}
	return false
}

func RestaurantsNearHotel(rs []domain.Restaurant, hotelID string) []domain.Restaurant {
	var out []domain.Restaurant
	for _, r := range rs {
		if NearHotel(r, hotelID) {
			out = append(out, r)
		}
	}
	return out
}

// FilterByCuisine keeps restaurants whose normalized cuisine equals cuisine.
// An empty cuisine keeps everything.
func FilterByCuisine(rs []domain.Restaurant, cuisine string) []domain.Restaurant {
	if strings.TrimSpace(cuisine) == "" {
		return rs
	}
	target := textnorm.Normalize(cuisine)
	var out []domain.Restaurant
	for _, r := range rs {
		if textnorm.Normalize(r.Cuisine) == target {
			out = append(out, r)
		}
	}
	return out
}

// RestaurantCandidates returns the restaurants near hotelID (optionally of
// one cuisine) sorted by rating, widened to max(topK, RerankSlack) entries.
func RestaurantCandidates(rs []domain.Restaurant, hotelID, cuisine string, topK int) []domain.RestaurantCandidate {
	near := FilterByCuisine(RestaurantsNearHotel(rs, hotelID), cuisine)
	if len(near) == 0 {
		return nil
	}
	sorted := make([]domain.Restaurant, len(near))
	copy(sorted, near)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rating > sorted[j].Rating })

	if n := max(topK, RerankSlack); len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]domain.RestaurantCandidate, 0, len(sorted))
	for _, r := range sorted {
		out = append(out, domain.RestaurantCandidate{
			ID:       strconv.FormatInt(r.ID, 10),
			Name:     r.Name,
			Cuisine:  r.Cuisine,
			Rating:   r.Rating,
			Location: r.Location,
		})
	}
	return out
}
