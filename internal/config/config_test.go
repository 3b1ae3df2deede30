package config

import (
	"log/slog"
	"testing"
	"time"

	"storymap/internal/dialogue"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORY_FILE", "WEB_DIR", "LOG_LEVEL", "SESSION_TTL", "EVENT_RATE", "TEXT_SPEED"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != DefaultPort || cfg.StoryFile != DefaultStoryFile || cfg.WebDir != "" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelInfo || cfg.SessionTTL != DefaultSessionTTL || cfg.EventRate != DefaultEventRate {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.TextSpeed != dialogue.SpeedRelaxed {
		t.Errorf("TextSpeed = %v, want relaxed", cfg.TextSpeed)
	}
	if cfg.Addr() != ":3001" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("STORY_FILE", "story/points.yaml")
	t.Setenv("WEB_DIR", "./web")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("EVENT_RATE", "30")
	t.Setenv("TEXT_SPEED", "zen")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.StoryFile != "story/points.yaml" || cfg.WebDir != "./web" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelDebug || cfg.SessionTTL != 15*time.Minute || cfg.EventRate != 30 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.TextSpeed != dialogue.SpeedZen {
		t.Errorf("TextSpeed = %v, want zen", cfg.TextSpeed)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"LOG_LEVEL":   "chatty",
		"SESSION_TTL": "soon",
		"EVENT_RATE":  "-5",
		"TEXT_SPEED":  "ludicrous",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Errorf("Load accepted %s=%q", key, value)
			}
		})
	}
}
