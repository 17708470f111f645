package domain

// Hotel is one row of the local hotel dataset.
type Hotel struct {
	ID       int64
	Name     string
	City     string
	Price    float64 // nightly, TL
	Rating   float64 // 0-5
	Location string
}

// HotelCandidate is a hotel considered for one recommendation request.
// Locally scored candidates always carry Score; provider candidates carry a
// provider-specific score and no Price.
type HotelCandidate struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	City          string   `json:"city"`
	Price         *float64 `json:"price_per_night,omitempty"`
	Rating        float64  `json:"rating"`
	Location      string   `json:"location"`
	Score         float64  `json:"score"`
	Justification string   `json:"justification"`

	// provider-only
	Coords       *Coords `json:"coords,omitempty"`
	PriceLevel   *int    `json:"price_level,omitempty"`
	RatingsTotal *int    `json:"ratings_total,omitempty"`
}

func (h HotelCandidate) CandidateID() string { return h.ID }

type Coords struct{ Lat, Lng float64 }
