// Command recommend runs one recommendation round from the terminal and
// optionally records a rating for the top hotel.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"hotelrec/internal/adapters/llm"
	"hotelrec/internal/adapters/observability"
	"hotelrec/internal/adapters/places"
	"hotelrec/internal/app"
	"hotelrec/internal/dataset"
	"hotelrec/internal/domain"
	"hotelrec/internal/ranking"
	"hotelrec/internal/shared"
	mysqlrepo "hotelrec/internal/storage/mysql"
)

type options struct {
	user      string
	city      string
	maxPrice  float64
	minRating float64
	cuisine   string
	rating    int
	comment   string
	noDB      bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("recommend", flag.ContinueOnError)
	fs.StringVar(&o.user, "user", "", "user identifier (enables profile hint and feedback)")
	fs.StringVar(&o.city, "city", "", "city to search (required)")
	fs.Float64Var(&o.maxPrice, "max-price", 2500, "maximum nightly price")
	fs.Float64Var(&o.minRating, "min-rating", 4.0, "minimum rating, 0-5")
	fs.StringVar(&o.cuisine, "cuisine", "", "restaurant cuisine filter (optional)")
	fs.IntVar(&o.rating, "rating", 0, "rate the top hotel 1-5 after the run (0 skips)")
	fs.StringVar(&o.comment, "comment", "", "comment stored with -rating")
	fs.BoolVar(&o.noDB, "no-db", false, "run without MySQL (no profile hint, no feedback)")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	switch {
	case strings.TrimSpace(o.city) == "":
		return o, fmt.Errorf("-city is required")
	case o.maxPrice <= 0:
		return o, fmt.Errorf("-max-price must be positive")
	case o.minRating < 0 || o.minRating > 5:
		return o, fmt.Errorf("-min-rating must be between 0 and 5")
	case o.rating != 0 && (o.rating < 1 || o.rating > 5):
		return o, fmt.Errorf("-rating must be between 1 and 5")
	case o.rating != 0 && (o.user == "" || o.noDB):
		return o, fmt.Errorf("-rating needs -user and a database")
	}
	return o, nil
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, cfg, o, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("recommend failed")
	}
}

func run(ctx context.Context, cfg shared.Config, o options, out io.Writer) error {
	ds, err := dataset.Load(ctx, cfg.HotelsCSV, cfg.RestaurantsCSV)
	if err != nil {
		return err
	}

	var fb *app.FeedbackService
	var hints app.HintSource
	if !o.noDB {
		db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		fb = app.NewFeedbackService(mysqlrepo.New(db))
		hints = fb
	}

	var pc domain.PlacesClient
	if cfg.PlacesEnabled() {
		if pc, err = places.New(cfg.PlacesBase, cfg.PlacesKey, cfg.PlacesRPS); err != nil {
			return err
		}
	}
	gen := llm.New(llm.Config{
		Provider: cfg.LLMProvider, APIKey: cfg.LLMKey, Model: cfg.LLMModel,
		BaseURL: cfg.LLMBaseURL, Timeout: cfg.LLMTimeout, MaxInFlight: cfg.LLMInFlight,
	})
	rerank := ranking.DefaultRerankConfig(cfg.RerankEnabled() && gen.Provider() != "mock")
	rerank.Model = gen.Model()

	svc := app.NewRecommendationService(ds, pc, gen, nil, hints, app.Options{
		HotelTopK: cfg.HotelTopK, RestaurantTopK: cfg.RestaurantTopK,
		Rerank: rerank, RadiusM: cfg.PlacesRadiusM,
	})

	var sess domain.Session
	if fb != nil && o.user != "" {
		if sess, err = fb.StartSession(ctx, o.user); err != nil {
			return err
		}
	}

	rec, err := svc.Recommend(ctx, app.Request{
		UserID: sess.UserID, City: o.city, MaxPrice: o.maxPrice, MinRating: o.minRating, Cuisine: o.cuisine,
	})
	if err != nil {
		return err
	}
	printRecommendation(out, rec)

	if o.rating == 0 || len(rec.Hotels.Items) == 0 {
		return nil
	}
	top := rec.Hotels.Items[0]
	in := app.FeedbackInput{
		UserID: sess.UserID, SessionID: sess.ID, HotelID: top.ID, Rating: o.rating, Comment: o.comment,
	}
	for _, hr := range rec.Restaurants {
		if hr.HotelID == top.ID && len(hr.Restaurants.Items) > 0 {
			in.RestaurantID = hr.Restaurants.Items[0].ID
		}
	}
	if err := fb.SubmitFeedback(ctx, in); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nSaved rating %d for %s.\n", o.rating, top.Name)
	return nil
}

func printRecommendation(w io.Writer, rec app.Recommendation) {
	if rec.ProfileHint != "" {
		fmt.Fprintf(w, "Profile: %s\n\n", rec.ProfileHint)
	}
	if len(rec.Hotels.Items) == 0 {
		fmt.Fprintln(w, "No hotel matches your criteria.")
		return
	}

	mode := "local order"
	if rec.Hotels.Reranked {
		mode = "reranked"
	}
	fmt.Fprintf(w, "Hotels (%s, %s):\n", rec.Hotels.Source, mode)
	for i, h := range rec.Hotels.Items {
		price := "price: ?"
		if h.Price != nil {
			price = fmt.Sprintf("%.0f TL", *h.Price)
		}
		fmt.Fprintf(w, "%d) %s | %s | %s | %.1f | score %.1f\n", i+1, h.Name, h.City, price, h.Rating, h.Score)
		if h.Justification != "" {
			fmt.Fprintf(w, "   why: %s\n", h.Justification)
		}
		if h.Location != "" {
			fmt.Fprintf(w, "   where: %s\n", h.Location)
		}
	}
	m := rec.Hotels.Metrics
	fmt.Fprintf(w, "\nDiversity %.2f | repetition %.2f\n\n", m.Diversity, m.Repetition)

	for _, hr := range rec.Restaurants {
		fmt.Fprintf(w, "Restaurants near %s:\n", hr.HotelName)
		if len(hr.Restaurants.Items) == 0 {
			fmt.Fprintln(w, "  none found")
			continue
		}
		for _, r := range hr.Restaurants.Items {
			fmt.Fprintf(w, "  - %s (%s) %.1f\n", r.Name, r.Cuisine, r.Rating)
		}
	}
}
