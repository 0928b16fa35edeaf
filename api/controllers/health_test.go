package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}

	ok := map[string]Pinger{"storage": pingerFunc(func(context.Context) error { return nil })}
	resp := doRequest(t, http.MethodGet, "/health/ready", "/health/ready", "", 0, HealthReady(cfg, ok, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-Storefront-Env") != "dev" {
		t.Fatalf("expected env header")
	}

	failing := map[string]Pinger{"storage": pingerFunc(func(context.Context) error { return errors.New("read-only fs") })}
	resp = doRequest(t, http.MethodGet, "/health/ready", "/health/ready", "", 0, HealthReady(cfg, failing, nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "prod"}}
	resp := doRequest(t, http.MethodGet, "/health/live", "/health/live", "", 0, HealthLive(cfg))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
