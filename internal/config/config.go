package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
// Values come from os.Getenv() so deployments can override per environment.
type Config struct {
	Port        string
	DatabaseDSN string
	JWTSecret   string

	// Workflow engine (the external agent runner we dispatch jobs to).
	WorkflowAPIURL string
	WorkflowAPIKey string

	// Public base URL of this server, used to build callback URLs.
	CallbackBaseURL string
	// Optional shared secret the engine must echo back on the callback.
	// Empty means the callback endpoint is open.
	CallbackSecret string

	GeminiAPIKey string

	PitchDispatchTimeout    time.Duration
	GuidanceDispatchTimeout time.Duration

	ReaperInterval time.Duration
	ReaperMaxAge   time.Duration
}

// Load reads .env (if present) and assembles the config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		DatabaseDSN:             getEnv("DATABASE_DSN", "host=localhost user=postgres password=password dbname=pitchcraft port=5432 sslmode=disable"),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		WorkflowAPIURL:          getEnv("WORKFLOW_API_URL", "https://api.promptlayer.com"),
		WorkflowAPIKey:          getEnv("WORKFLOW_API_KEY", ""),
		CallbackBaseURL:         getEnv("CALLBACK_BASE_URL", "http://localhost:8080"),
		CallbackSecret:          getEnv("CALLBACK_SECRET", ""),
		GeminiAPIKey:            getEnv("GEMINI_API_KEY", ""),
		PitchDispatchTimeout:    getDuration("PITCH_DISPATCH_TIMEOUT", 300*time.Second),
		GuidanceDispatchTimeout: getDuration("GUIDANCE_DISPATCH_TIMEOUT", 55*time.Second),
		ReaperInterval:          getDuration("REAPER_INTERVAL", time.Minute),
		ReaperMaxAge:            getDuration("REAPER_MAX_AGE", 10*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	// Accept either a Go duration ("55s") or plain seconds ("55").
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("⚠️  Invalid duration for %s (%q), using default %v", key, v, fallback)
	return fallback
}
