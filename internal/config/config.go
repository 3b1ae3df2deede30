package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"storymap/internal/dialogue"
)

// Default values
const (
	DefaultPort       = "3001"
	DefaultStoryFile  = "story/points.json"
	DefaultLogLevel   = "info"
	DefaultSessionTTL = 1 * time.Hour
	DefaultEventRate  = 120 // events per second per session
	DefaultTextSpeed  = "relaxed"
)

// Config holds the server settings read from the environment
type Config struct {
	Port       string
	StoryFile  string        // path inside the web filesystem
	WebDir     string        // serve from this directory instead of the embedded files
	LogLevel   slog.Level
	SessionTTL time.Duration  // idle sessions are evicted after this
	EventRate  int            // sustained events per second per session
	TextSpeed  dialogue.Speed // reveal speed of new sessions
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:      getEnv("PORT", DefaultPort),
		StoryFile: getEnv("STORY_FILE", DefaultStoryFile),
		WebDir:    getEnv("WEB_DIR", ""),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", DefaultLogLevel))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", DefaultSessionTTL.String()))
	if err != nil {
		return nil, fmt.Errorf("SESSION_TTL: %w", err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", ttl)
	}
	cfg.SessionTTL = ttl

	rate, err := strconv.Atoi(getEnv("EVENT_RATE", strconv.Itoa(DefaultEventRate)))
	if err != nil {
		return nil, fmt.Errorf("EVENT_RATE: %w", err)
	}
	if rate <= 0 {
		return nil, fmt.Errorf("EVENT_RATE must be positive, got %d", rate)
	}
	cfg.EventRate = rate

	speed, err := dialogue.ParseSpeed(getEnv("TEXT_SPEED", DefaultTextSpeed))
	if err != nil {
		return nil, fmt.Errorf("TEXT_SPEED: %w", err)
	}
	cfg.TextSpeed = speed

	return cfg, nil
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.Port
}
