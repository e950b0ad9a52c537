package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/alimgiray/starscope/internal/models"
	"github.com/joho/godotenv"
)

type Config struct {
	GitHub    GitHubConfig
	Output    OutputConfig
	Database  DatabaseConfig
	Server    ServerConfig
	Suspicion SuspicionConfig
}

type GitHubConfig struct {
	Token  string
	APIURL string // override for tests; empty means api.github.com

	PerPage      int
	MaxRetries   int
	RetryBackoff time.Duration
	RequestDelay time.Duration

	// Rate-limit waits are clamped into [MinRateLimitWait, MaxRateLimitWait].
	// A reset further away than MaxRateLimitWait aborts instead of sleeping.
	MinRateLimitWait time.Duration
	MaxRateLimitWait time.Duration

	// Per-stargazer sub-collection limits.
	OwnedRepoLimit int
	ActivityPages  int
}

type OutputConfig struct {
	Dir string
}

type DatabaseConfig struct {
	Path string
}

type ServerConfig struct {
	Port string
	Mode string
}

type SuspicionConfig struct {
	NewAccountWeight    int
	ZeroRepoWeight      int
	FollowerRatioWeight int
	NoActivityWeight    int
	AgeThresholdDays    int
	RatioThreshold      float64
	MinFollowing        int
	FlagThreshold       float64
}

// Load loads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	token := getEnv("GITHUB_PAT", "")
	if token == "" {
		token = getEnv("GITHUB_TOKEN", "")
	}

	cfg := &Config{
		GitHub: GitHubConfig{
			Token:            token,
			APIURL:           getEnv("GITHUB_API_URL", ""),
			PerPage:          getEnvAsInt("PER_PAGE", 100),
			MaxRetries:       getEnvAsInt("MAX_RETRIES", 3),
			RetryBackoff:     time.Duration(getEnvAsInt("RETRY_BACKOFF_MS", 1000)) * time.Millisecond,
			RequestDelay:     time.Duration(getEnvAsInt("REQUEST_DELAY_MS", 500)) * time.Millisecond,
			MinRateLimitWait: time.Duration(getEnvAsInt("RATE_LIMIT_MIN_WAIT_SEC", 60)) * time.Second,
			MaxRateLimitWait: time.Duration(getEnvAsInt("RATE_LIMIT_MAX_WAIT_MIN", 65)) * time.Minute,
			OwnedRepoLimit:   getEnvAsInt("OWNED_REPO_LIMIT", 5),
			ActivityPages:    getEnvAsInt("ACTIVITY_PAGES", 1),
		},
		Output: OutputConfig{
			Dir: getEnv("OUTPUT_DIR", "."),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./starscope.db"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Mode: getEnv("GIN_MODE", "release"),
		},
		Suspicion: SuspicionConfig{
			NewAccountWeight:    getEnvAsInt("SUSPICION_NEW_ACCOUNT_WEIGHT", 35),
			ZeroRepoWeight:      getEnvAsInt("SUSPICION_ZERO_REPO_WEIGHT", 25),
			FollowerRatioWeight: getEnvAsInt("SUSPICION_FOLLOWER_RATIO_WEIGHT", 20),
			NoActivityWeight:    getEnvAsInt("SUSPICION_NO_ACTIVITY_WEIGHT", 20),
			AgeThresholdDays:    getEnvAsInt("SUSPICION_AGE_THRESHOLD_DAYS", 90),
			RatioThreshold:      getEnvAsFloat("SUSPICION_RATIO_THRESHOLD", 0.1),
			MinFollowing:        getEnvAsInt("SUSPICION_MIN_FOLLOWING", 10),
			FlagThreshold:       getEnvAsFloat("SUSPICION_FLAG_THRESHOLD", 50),
		},
	}

	if cfg.GitHub.PerPage < 1 || cfg.GitHub.PerPage > 100 {
		return nil, errors.New("PER_PAGE must be between 1 and 100")
	}
	if cfg.GitHub.MaxRetries < 1 {
		return nil, errors.New("MAX_RETRIES must be at least 1")
	}

	return cfg, nil
}

// SuspicionSettings builds the scoring settings from configuration
func (c *Config) SuspicionSettings() *models.SuspicionSettings {
	return &models.SuspicionSettings{
		NewAccountWeight:    c.Suspicion.NewAccountWeight,
		ZeroRepoWeight:      c.Suspicion.ZeroRepoWeight,
		FollowerRatioWeight: c.Suspicion.FollowerRatioWeight,
		NoActivityWeight:    c.Suspicion.NoActivityWeight,
		AgeThresholdDays:    c.Suspicion.AgeThresholdDays,
		RatioThreshold:      c.Suspicion.RatioThreshold,
		MinFollowing:        c.Suspicion.MinFollowing,
		FlagThreshold:       c.Suspicion.FlagThreshold,
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat gets an environment variable as float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
