package config

import (
	"testing"
	"time"
)

// TestLoadConfigDefaults verifies the server runs on defaults alone when no
// config file is present.
func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != "5000" {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "5000")
	}
	if cfg.Server.WebSocketPath != "/ws" {
		t.Errorf("Server.WebSocketPath = %q, want %q", cfg.Server.WebSocketPath, "/ws")
	}
	if cfg.Auth.CookieName != "chat_session" {
		t.Errorf("Auth.CookieName = %q, want %q", cfg.Auth.CookieName, "chat_session")
	}
	if cfg.Auth.JWTExpiry != 72*time.Hour {
		t.Errorf("Auth.JWTExpiry = %v, want 72h", cfg.Auth.JWTExpiry)
	}
	if cfg.Database.Type != "postgres" {
		t.Errorf("Database.Type = %q, want %q", cfg.Database.Type, "postgres")
	}
	if cfg.WebSocket.SendBufferSize != 256 {
		t.Errorf("WebSocket.SendBufferSize = %d, want 256", cfg.WebSocket.SendBufferSize)
	}
	if cfg.WebSocket.PingPeriodSeconds >= cfg.WebSocket.PongWaitSeconds {
		t.Error("ping period must be shorter than the pong wait")
	}
}

// TestLoadConfigEnvOverride verifies environment variables take precedence
// over defaults.
func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Port != "9999" {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "9999")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}
