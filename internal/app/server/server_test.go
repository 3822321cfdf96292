package server

import (
	"context"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"schoolpay/internal/platform/config"
)

func TestRunReturnsStartupError(t *testing.T) {
	err := run(context.Background(), config.Config{})
	if err == nil {
		t.Fatal("expected startup error for empty config")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRunReturnsListenError(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer busy.Close()

	cfg := config.Config{
		Addr:               busy.Addr().String(),
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		DataEncryptionKey:  strings.Repeat("ab", 32),
		Environment:        "test",
		PayslipCurrency:    "MAD",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg) }()
	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "listen") {
			t.Fatalf("expected listen error, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return on a busy address")
	}
}
