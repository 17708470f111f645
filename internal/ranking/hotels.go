// Package ranking scores hotel and restaurant candidates from local data,
// optionally reorders them through a language-model reranker, and reports
// diversity statistics over the final list.
package ranking

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"hotelrec/internal/domain"
	"hotelrec/internal/textnorm"
)

// Weights of the suitability score. Changing them changes recommendations.
const (
	ratingWeight = 20.0
	priceWeight  = 10.0
)

type HotelFilter struct {
	City      string
	MaxPrice  float64 // inclusive
	MinRating float64 // inclusive
}

// FilterHotels keeps rows whose normalized city equals the filter city and
// whose price and rating are within bounds. An empty result is not an error.
func FilterHotels(hotels []domain.Hotel, f HotelFilter) []domain.Hotel {
	target := textnorm.Normalize(f.City)
	var out []domain.Hotel
	for _, h := range hotels {
		if textnorm.Normalize(h.City) != target {
			continue
		}
		if h.Price > f.MaxPrice || h.Rating < f.MinRating {
			continue
		}
		out = append(out, h)
	}
	return out
}

// ScoreHotels ranks filtered hotels by
//
//	score = rating*20 + (maxPrice-price)/maxPrice*10
//
// where maxPrice is the highest price in the filtered set (at least 1).
// Ties on score are broken by rating. At most topK candidates are returned.
func ScoreHotels(filtered []domain.Hotel, topK int, profileHint string) []domain.HotelCandidate {
	if len(filtered) == 0 || topK <= 0 {
		return nil
	}

	maxPrice := 1.0
	for _, h := range filtered {
		maxPrice = math.Max(maxPrice, h.Price)
	}

	type scored struct {
		h     domain.Hotel
		score float64
	}
	rows := make([]scored, 0, len(filtered))
	for _, h := range filtered {
		rows = append(rows, scored{h: h, score: hotelScore(h.Rating, h.Price, maxPrice)})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].score != rows[j].score {
			return rows[i].score > rows[j].score
		}
		return rows[i].h.Rating > rows[j].h.Rating
	})
	if len(rows) > topK {
		rows = rows[:topK]
	}

	out := make([]domain.HotelCandidate, 0, len(rows))
	for _, r := range rows {
		price := r.h.Price
		out = append(out, domain.HotelCandidate{
			ID:            strconv.FormatInt(r.h.ID, 10),
			Name:          r.h.Name,
			City:          r.h.City,
			Price:         &price,
			Rating:        r.h.Rating,
			Location:      r.h.Location,
			Score:         round1(r.score),
			Justification: hotelJustification(r.h, profileHint),
		})
	}
	return out
}

func hotelScore(rating, price, maxPrice float64) float64 {
	return rating*ratingWeight + (maxPrice-price)/maxPrice*priceWeight
}

func hotelJustification(h domain.Hotel, hint string) string {
	base := fmt.Sprintf("High rating (%s) and budget-friendly price (%d TL).",
		strconv.FormatFloat(h.Rating, 'f', -1, 64), int64(h.Price))
	if hint == "" {
		return base
	}
	return base + " | " + hint
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }
