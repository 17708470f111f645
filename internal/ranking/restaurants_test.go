package ranking_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelrec/internal/domain"
	"hotelrec/internal/ranking"
)

func TestNearHotel_TokenMatch(t *testing.T) {
	r := domain.Restaurant{ID: 1, NearIDs: "12,7"}
	assert.True(t, ranking.NearHotel(r, "12"))
	assert.True(t, ranking.NearHotel(r, "7"))
	assert.False(t, ranking.NearHotel(r, "1"))
	assert.False(t, ranking.NearHotel(r, "2"))
	assert.False(t, ranking.NearHotel(r, "123"))

	spaced := domain.Restaurant{NearIDs: " 3 , 45 "}
	assert.True(t, ranking.NearHotel(spaced, "45"))
	assert.False(t, ranking.NearHotel(spaced, ""))
}

func TestRestaurantCandidates_CuisineAndOrder(t *testing.T) {
	rs := []domain.Restaurant{
		{ID: 1, Name: "Kebapçı", Cuisine: "Türk Mutfağı", Rating: 4.2, NearIDs: "1,2"},
		{ID: 2, Name: "Pizzeria", Cuisine: "İtalyan", Rating: 4.8, NearIDs: "1"},
		{ID: 3, Name: "Ev Yemekleri", Cuisine: "turk mutfagi", Rating: 4.6, NearIDs: "1"},
		{ID: 4, Name: "Far Away", Cuisine: "Türk Mutfağı", Rating: 5.0, NearIDs: "11"},
	}

	got := ranking.RestaurantCandidates(rs, "1", "TÜRK MUTFAĞI", 3)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].ID)
	assert.Equal(t, "1", got[1].ID)
	assert.Equal(t, "Kebapçı", got[1].Name)

	all := ranking.RestaurantCandidates(rs, "1", "", 3)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"2", "3", "1"}, ranking.IDs(all))

	assert.Empty(t, ranking.RestaurantCandidates(rs, "99", "", 3))
}

func TestRestaurantCandidates_WidensForRerank(t *testing.T) {
	var rs []domain.Restaurant
	for i := 0; i < 15; i++ {
		rs = append(rs, domain.Restaurant{ID: int64(i + 1), Name: fmt.Sprint("r", i), Rating: float64(i) / 3, NearIDs: "5"})
	}
	assert.Len(t, ranking.RestaurantCandidates(rs, "5", "", 3), ranking.RerankSlack)
	assert.Len(t, ranking.RestaurantCandidates(rs, "5", "", 12), 12)
}
