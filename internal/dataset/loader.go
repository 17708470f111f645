// Package dataset loads the static hotel and restaurant tables. The loaded
// Dataset is read-only and safe to share between requests.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"hotelrec/internal/domain"
)

type Dataset struct {
	Hotels      []domain.Hotel
	Restaurants []domain.Restaurant
}

/********** header alias registries **********/

var hotelAliases = map[string][]string{
	"id":       {"id", "otel_id", "hotel_id"},
	"name":     {"isim", "name", "hotel_name"},
	"city":     {"sehir", "city"},
	"price":    {"fiyat_gece", "price", "nightly_price", "price_per_night"},
	"rating":   {"puan", "rating"},
	"location": {"konum_aciklama", "location", "description"},
}

var restaurantAliases = map[string][]string{
	"id":       {"id", "restoran_id", "restaurant_id"},
	"name":     {"isim", "name"},
	"cuisine":  {"mutfak_turu", "cuisine"},
	"rating":   {"puan", "rating"},
	"location": {"konum_aciklama", "location", "description"},
	"near":     {"otellere_yakin_ids", "near_hotel_ids", "near_hotels"},
}

var errMissingColumn = errors.New("missing column")

// Load reads both files concurrently.
func Load(ctx context.Context, hotelsPath, restaurantsPath string) (*Dataset, error) {
	var ds Dataset
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		hs, err := loadFile(hotelsPath, ReadHotels)
		ds.Hotels = hs
		return err
	})
	g.Go(func() error {
		rs, err := loadFile(restaurantsPath, ReadRestaurants)
		ds.Restaurants = rs
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Info().
		Int("hotels", len(ds.Hotels)).
		Int("restaurants", len(ds.Restaurants)).
		Msg("dataset loaded")
	return &ds, nil
}

func loadFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	out, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

func ReadHotels(r io.Reader) ([]domain.Hotel, error) {
	rows, cols, err := readTable(r, hotelAliases, "id", "name", "city", "price", "rating")
	if err != nil {
		return nil, err
	}
	out := make([]domain.Hotel, 0, len(rows))
	for i, row := range rows {
		id, err1 := parseInt(cols.get(row, "id"))
		price, err2 := parseFloat(cols.get(row, "price"))
		rating, err3 := parseFloat(cols.get(row, "rating"))
		if err := errors.Join(err1, err2, err3); err != nil {
			log.Warn().Int("line", i+2).Err(err).Msg("skipping hotel row")
			continue
		}
		out = append(out, domain.Hotel{
			ID:       id,
			Name:     cols.get(row, "name"),
			City:     cols.get(row, "city"),
			Price:    price,
			Rating:   rating,
			Location: cols.get(row, "location"),
		})
	}
	return out, nil
}

func ReadRestaurants(r io.Reader) ([]domain.Restaurant, error) {
	rows, cols, err := readTable(r, restaurantAliases, "id", "name", "rating", "near")
	if err != nil {
		return nil, err
	}
	out := make([]domain.Restaurant, 0, len(rows))
	for i, row := range rows {
		id, err1 := parseInt(cols.get(row, "id"))
		rating, err2 := parseFloat(cols.get(row, "rating"))
		if err := errors.Join(err1, err2); err != nil {
			log.Warn().Int("line", i+2).Err(err).Msg("skipping restaurant row")
			continue
		}
		out = append(out, domain.Restaurant{
			ID:       id,
			Name:     cols.get(row, "name"),
			Cuisine:  cols.get(row, "cuisine"),
			Rating:   rating,
			Location: cols.get(row, "location"),
			NearIDs:  cols.get(row, "near"),
		})
	}
	return out, nil
}

/********** tiny helpers **********/

// columns maps a canonical field name to its index in a row.
type columns map[string]int

func (c columns) get(row []string, field string) string {
	i, ok := c[field]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func readTable(r io.Reader, aliases map[string][]string, required ...string) ([][]string, columns, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		index[h] = i
	}

	cols := columns{}
	for field, names := range aliases {
		for _, n := range names {
			if i, ok := index[n]; ok {
				cols[field] = i
				break
			}
		}
	}
	for _, f := range required {
		if _, ok := cols[f]; !ok {
			return nil, nil, fmt.Errorf("%w %q (accepted: %s)", errMissingColumn, f, strings.Join(aliases[f], ", "))
		}
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	return rows, cols, nil
}

func parseInt(s string) (int64, error) {
	if f, err := parseFloat(s); err == nil && f == float64(int64(f)) {
		return int64(f), nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// parseFloat accepts "4,5" as well as "4.5".
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	return strconv.ParseFloat(s, 64)
}
