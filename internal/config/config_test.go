package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RUN_LOCAL", "true")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_SECRET_FILE", "")
	for _, k := range []string{"PORT", "FEE_SCHEDULE", "PREPARING_DELAY", "AUTO_DELIVER_AFTER", "PAYMENT_TICKS", "PAYMENT_TICK", "STORAGE_TABLE", "SESSION_ID", "HISTORY_SESSION_ID"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != ":8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.FeeSchedule != "dine_in" {
		t.Fatalf("expected dine_in schedule, got %s", cfg.FeeSchedule)
	}
	if cfg.PreparingDelay != 2*time.Second || cfg.AutoDeliverAfter != 0 {
		t.Fatalf("unexpected lifecycle delays: %v %v", cfg.PreparingDelay, cfg.AutoDeliverAfter)
	}
	if cfg.PaymentTicks != 5 || cfg.PaymentTick != time.Second {
		t.Fatalf("unexpected payment countdown: %d x %v", cfg.PaymentTicks, cfg.PaymentTick)
	}
	if cfg.StorageTable != "" {
		t.Fatalf("expected in-memory storage by default")
	}
	if cfg.SessionID != "default" || cfg.HistorySessionID != "restaurant" {
		t.Fatalf("unexpected partitions: %s %s", cfg.SessionID, cfg.HistorySessionID)
	}
	if cfg.JWTSecret != localJWTSecret {
		t.Fatalf("expected the local secret when running locally, got %q", cfg.JWTSecret)
	}
}

func TestLoad_RequiresSecretOutsideLocal(t *testing.T) {
	t.Setenv("RUN_LOCAL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_SECRET_FILE", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error without a signing secret")
	}

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.JWTSecret != "s3cret" || cfg.RunLocal {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadWorker_NoSecretNeeded(t *testing.T) {
	t.Setenv("RUN_LOCAL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_SECRET_FILE", "")

	cfg, err := LoadWorker()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.JWTSecret != "" {
		t.Fatalf("worker must not get a default signing secret, got %q", cfg.JWTSecret)
	}
}

func TestLoad_SecretFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jwt")
	if err := os.WriteFile(path, []byte("from-file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("RUN_LOCAL", "")
	t.Setenv("JWT_SECRET_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.JWTSecret != "from-file" {
		t.Fatalf("expected secret from file, got %q", cfg.JWTSecret)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("FEE_SCHEDULE", "delivery")
	t.Setenv("AUTO_DELIVER_AFTER", "30s")
	t.Setenv("PAYMENT_TICKS", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FeeSchedule != "delivery" || cfg.AutoDeliverAfter != 30*time.Second || cfg.PaymentTicks != 3 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PREPARING_DELAY", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected parse error, got nil")
	}
}
