package domain

// Restaurant is one row of the local restaurant dataset.
type Restaurant struct {
	ID       int64
	Name     string
	Cuisine  string
	Rating   float64
	Location string
	NearIDs  string // comma separated hotel ids, e.g. "12,7"
}

type RestaurantCandidate struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Cuisine  string  `json:"cuisine"`
	Rating   float64 `json:"rating"`
	Location string  `json:"location"`

	// provider-only
	PriceLevel   *int `json:"price_level,omitempty"`
	RatingsTotal *int `json:"ratings_total,omitempty"`
}

func (r RestaurantCandidate) CandidateID() string { return r.ID }
