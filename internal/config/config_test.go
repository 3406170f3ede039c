package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"SYSTEM_ID", "POLL_INTERVAL_MS", "ETA_TIMEOUT", "ROUTING_PROVIDER", "CORS_ORIGINS", "FLEET_PUBLISH"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SystemID != DefaultSystemID {
		t.Fatalf("SystemID = %d, want %d", cfg.SystemID, DefaultSystemID)
	}
	if cfg.PollInterval != time.Second {
		t.Fatalf("PollInterval = %v, want 1s", cfg.PollInterval)
	}
	if cfg.ETATimeout != 15*time.Second {
		t.Fatalf("ETATimeout = %v, want 15s", cfg.ETATimeout)
	}
	if cfg.RoutingProvider != "google" {
		t.Fatalf("RoutingProvider = %q, want google", cfg.RoutingProvider)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.FleetPublish {
		t.Fatalf("FleetPublish should default to false")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SYSTEM_ID", "42")
	t.Setenv("POLL_INTERVAL_MS", "500")
	t.Setenv("ETA_TIMEOUT", "3s")
	t.Setenv("ROUTING_PROVIDER", "ORS")
	t.Setenv("ORS_API_KEY", "ors-key")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("FLEET_PUBLISH", "yes")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SystemID != 42 || cfg.PollInterval != 500*time.Millisecond || cfg.ETATimeout != 3*time.Second {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.RoutingAPIKey() != "ors-key" {
		t.Fatalf("RoutingAPIKey() = %q", cfg.RoutingAPIKey())
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if !cfg.FleetPublish {
		t.Fatalf("FleetPublish = false, want true")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"SYSTEM_ID":        "abc",
		"POLL_INTERVAL_MS": "0",
		"ETA_TIMEOUT":      "soon",
		"ROUTING_PROVIDER": "bing",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, val)
			}
		})
	}
}
