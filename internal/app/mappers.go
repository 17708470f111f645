package app

import (
	"strings"

	"hotelrec/internal/domain"
	"hotelrec/internal/textnorm"
)

// PriceLevel maps a nightly budget onto the places price level scale.
func PriceLevel(maxPrice float64) int {
	switch {
	case maxPrice <= 1000:
		return 1
	case maxPrice <= 2500:
		return 2
	case maxPrice <= 5000:
		return 3
	default:
		return 4
	}
}

// hotelAnchor is the hotel as shown to the restaurant reranker.
func hotelAnchor(h domain.HotelCandidate) map[string]any {
	return map[string]any{
		"id":       h.ID,
		"name":     h.Name,
		"city":     h.City,
		"location": h.Location,
	}
}

// withHotelReasons replaces the local justification with the reranker's
// reason where one was given. The input slice is not modified.
func withHotelReasons(items []domain.HotelCandidate, reasons map[string]string) []domain.HotelCandidate {
	if len(reasons) == 0 {
		return items
	}
	out := make([]domain.HotelCandidate, len(items))
	copy(out, items)
	for i := range out {
		if r := strings.TrimSpace(reasons[out[i].ID]); r != "" {
			out[i].Justification = r
		}
	}
	return out
}

func cacheToken(s string) string {
	return strings.ReplaceAll(textnorm.Normalize(s), " ", "_")
}
