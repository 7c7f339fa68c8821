package config

import "testing"

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("APP_ADDR", "")
	t.Setenv("CANCEL_WINDOW_HOURS", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	env := LoadEnv()
	if env.AppAddr != ":8080" {
		t.Fatalf("AppAddr = %q, want :8080", env.AppAddr)
	}
	if env.CancelWindowHours != 24 {
		t.Fatalf("CancelWindowHours = %d, want 24", env.CancelWindowHours)
	}
	if len(env.CORSOrigins) != 0 {
		t.Fatalf("CORSOrigins = %v, want empty", env.CORSOrigins)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CANCEL_WINDOW_HOURS", "48")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://covoiturage.sn, https://app.covoiturage.sn")

	env := LoadEnv()
	if env.CancelWindowHours != 48 {
		t.Fatalf("CancelWindowHours = %d, want 48", env.CancelWindowHours)
	}
	if len(env.CORSOrigins) != 2 || env.CORSOrigins[0] != "https://covoiturage.sn" || env.CORSOrigins[1] != "https://app.covoiturage.sn" {
		t.Fatalf("CORSOrigins = %v", env.CORSOrigins)
	}
}

func TestLoadEnvIgnoresBadWindow(t *testing.T) {
	t.Setenv("CANCEL_WINDOW_HOURS", "-1")

	if env := LoadEnv(); env.CancelWindowHours != 24 {
		t.Fatalf("CancelWindowHours = %d, want default 24", env.CancelWindowHours)
	}
}
