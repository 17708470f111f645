package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration

	HotelsCSV      string
	RestaurantsCSV string

	PlacesKey     string
	PlacesBase    string
	PlacesRPS     int
	PlacesRadiusM int

	LLMProvider string // mock|gemini|openai
	LLMModel    string
	LLMKey      string
	LLMBaseURL  string
	LLMTimeout  time.Duration
	LLMInFlight int

	HotelTopK      int
	RestaurantTopK int
}

// RerankEnabled is true whenever a real language model is configured.
func (c Config) RerankEnabled() bool { return c.LLMProvider != "mock" }

// PlacesEnabled is true when a places API key is present.
func (c Config) PlacesEnabled() bool { return c.PlacesKey != "" }

func Load() Config {
	// .env is optional; real environment wins over it
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ":9100"),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hotelrec?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:      env("REDIS_ADDR", "localhost:6379"),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		HotelsCSV:      env("HOTELS_CSV", "data/otel.csv"),
		RestaurantsCSV: env("RESTAURANTS_CSV", "data/restoran.csv"),
		PlacesKey:      strings.TrimSpace(env("PLACES_API_KEY", "")),
		PlacesBase:     env("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place"),
		PlacesRPS:      atoi("PLACES_RPS", 5),
		PlacesRadiusM:  atoi("PLACES_RADIUS_M", 1500),
		LLMProvider:    strings.ToLower(strings.TrimSpace(env("LLM_PROVIDER", "mock"))),
		LLMModel:       env("LLM_MODEL", ""),
		LLMKey:         env("LLM_API_KEY", env("GEMINI_API_KEY", env("GOOGLE_API_KEY", os.Getenv("OPENAI_API_KEY")))),
		LLMBaseURL:     env("LLM_BASE_URL", ""),
		LLMTimeout:     time.Duration(atoi("LLM_TIMEOUT_SECONDS", 60)) * time.Second,
		LLMInFlight:    atoi("LLM_MAX_IN_FLIGHT", 4),
		HotelTopK:      atoi("HOTEL_TOP_K", 5),
		RestaurantTopK: atoi("RESTAURANT_TOP_K", 3),
	}
	if c.PlacesKey == "" {
		log.Info().Msg("PLACES_API_KEY is empty; using local dataset")
	}
	if c.RerankEnabled() && c.LLMKey == "" {
		log.Warn().Str("provider", c.LLMProvider).Msg("LLM_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
