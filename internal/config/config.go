package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// UGA campus transit on Passio GO.
const DefaultSystemID = 3994

type Config struct {
	Port     string
	SystemID int

	PassioBaseURL     string
	GTFSVehiclesURL   string
	RoutingProvider   string
	GoogleMapsAPIKey  string
	ORSAPIKey         string
	TopologyPath      string
	PollInterval      time.Duration
	ETATimeout        time.Duration
	TransitCacheTTL   time.Duration
	DirectionsTTL     time.Duration
	CORSOrigins       []string
	DBPath            string
	DatabaseURL       string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	NATSURL           string
	NATSSubjectPrefix string
	FleetPublish      bool
	LogFormat         string
	LogLevel          string
}

// Load reads configuration from the environment after loading an optional
// .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              Get("PORT", "8080"),
		PassioBaseURL:     Get("PASSIO_BASE_URL", "https://passiogo.com"),
		GTFSVehiclesURL:   os.Getenv("GTFS_RT_VEHICLES_URL"),
		RoutingProvider:   strings.ToLower(Get("ROUTING_PROVIDER", "google")),
		GoogleMapsAPIKey:  os.Getenv("GOOGLE_MAPS_API_KEY"),
		ORSAPIKey:         os.Getenv("ORS_API_KEY"),
		TopologyPath:      os.Getenv("TOPOLOGY_PATH"),
		DBPath:            Get("DB_PATH", "data/app.db"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		NATSURL:           os.Getenv("NATS_URL"),
		NATSSubjectPrefix: Get("NATS_SUBJECT_PREFIX", "buses"),
		LogFormat:         Get("LOG_FORMAT", "console"),
		LogLevel:          Get("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.SystemID, err = getInt("SYSTEM_ID", DefaultSystemID); err != nil {
		return nil, err
	}
	if cfg.SystemID <= 0 {
		return nil, fmt.Errorf("invalid SYSTEM_ID: %d", cfg.SystemID)
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	ms, err := getInt("POLL_INTERVAL_MS", 1000)
	if err != nil {
		return nil, err
	}
	if ms <= 0 {
		return nil, fmt.Errorf("invalid POLL_INTERVAL_MS: %d", ms)
	}
	cfg.PollInterval = time.Duration(ms) * time.Millisecond

	if cfg.ETATimeout, err = getDuration("ETA_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.TransitCacheTTL, err = getDuration("TRANSIT_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.DirectionsTTL, err = getDuration("DIRECTIONS_CACHE_TTL", 2*time.Minute); err != nil {
		return nil, err
	}

	cfg.FleetPublish = getBool("FLEET_PUBLISH")

	for _, o := range strings.Split(Get("CORS_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	switch cfg.RoutingProvider {
	case "google", "ors":
	default:
		return nil, fmt.Errorf("invalid ROUTING_PROVIDER: %q (want google or ors)", cfg.RoutingProvider)
	}

	return cfg, nil
}

// RoutingAPIKey returns the key of the selected routing provider.
func (c *Config) RoutingAPIKey() string {
	if c.RoutingProvider == "ors" {
		return c.ORSAPIKey
	}
	return c.GoogleMapsAPIKey
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}

func getBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}
