package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "hotelrec/internal/adapters/http_server"
	"hotelrec/internal/adapters/llm"
	"hotelrec/internal/adapters/observability"
	"hotelrec/internal/adapters/places"
	redisad "hotelrec/internal/adapters/redis"
	"hotelrec/internal/app"
	"hotelrec/internal/dataset"
	"hotelrec/internal/domain"
	"hotelrec/internal/ranking"
	"hotelrec/internal/shared"
	mysqlrepo "hotelrec/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	metricsSrv := observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("mysql unavailable")
	}
	defer db.Close()
	log.Info().Msg("database connection ok")

	// dataset is read-only after this point
	ds, err := dataset.Load(ctx, cfg.HotelsCSV, cfg.RestaurantsCSV)
	if err != nil {
		log.Fatal().Err(err).Msg("dataset load failed")
	}

	// deps
	repo := mysqlrepo.New(db)
	var cache domain.Cache
	rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer rc.Close()
	if err := rc.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; places results will not be cached")
	} else {
		cache = rc
	}

	var pc domain.PlacesClient
	if cfg.PlacesEnabled() {
		c, err := places.New(cfg.PlacesBase, cfg.PlacesKey, cfg.PlacesRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize places client")
		}
		pc = c
	}

	gen := llm.New(llm.Config{
		Provider:    cfg.LLMProvider,
		APIKey:      cfg.LLMKey,
		Model:       cfg.LLMModel,
		BaseURL:     cfg.LLMBaseURL,
		Timeout:     cfg.LLMTimeout,
		MaxInFlight: cfg.LLMInFlight,
	})
	// a provider that fell back to mock has nothing useful to say about order
	rerank := ranking.DefaultRerankConfig(cfg.RerankEnabled() && gen.Provider() != "mock")
	rerank.Model = gen.Model()

	fb := app.NewFeedbackService(repo)
	rec := app.NewRecommendationService(ds, pc, gen, cache, fb, app.Options{
		HotelTopK:      cfg.HotelTopK,
		RestaurantTopK: cfg.RestaurantTopK,
		Rerank:         rerank,
		RadiusM:        cfg.PlacesRadiusM,
		CacheTTL:       cfg.CacheTTL,
	})

	log.Info().
		Str("llm", gen.Provider()).
		Str("model", gen.Model()).
		Bool("rerank", rerank.Enabled).
		Bool("places", pc != nil).
		Msg("recommendation service ready")

	// http
	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Rec: rec, FB: fb})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(sctx)
	}
}
