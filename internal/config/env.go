package config

import (
	"os"
	"strconv"
	"strings"
)

type Env struct {
	AppAddr string
	GinMode string

	DBUser string
	DBPass string
	DBHost string
	DBName string

	JWTSecret string

	// CancelWindowHours is the minimum lead time before departure during
	// which a rider may still cancel a reservation.
	CancelWindowHours int

	// CORSOrigins overrides the default allowed origins when non-empty.
	CORSOrigins []string
}

func LoadEnv() Env {
	appAddr := strings.TrimSpace(os.Getenv("APP_ADDR"))
	if appAddr == "" {
		appAddr = ":8080"
	}

	env := Env{
		AppAddr:           appAddr,
		GinMode:           strings.TrimSpace(os.Getenv("GIN_MODE")),
		DBUser:            envOr("DB_USER", "root"),
		DBPass:            os.Getenv("DB_PASS"),
		DBHost:            envOr("DB_HOST", "127.0.0.1:3306"),
		DBName:            envOr("DB_NAME", "covoiturage_senegal"),
		JWTSecret:         envOr("JWT_SECRET", "super-secret-key-change-me"),
		CancelWindowHours: 24,
	}

	if v := strings.TrimSpace(os.Getenv("CANCEL_WINDOW_HOURS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			env.CancelWindowHours = n
		}
	}

	for _, o := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			env.CORSOrigins = append(env.CORSOrigins, o)
		}
	}

	return env
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
