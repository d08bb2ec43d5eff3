// Package config loads importer settings from the environment, with an
// optional .env file filling in unset variables.
package config

import (
	"os"
	"strconv"
)

const defaultAPIURL = "https://api-prod.omnivore.app/api/graphql"

type Config struct {
	APIURL     string
	APIKey     string
	LedgerPath string
	Cutoff     float64
}

func Load() Config {
	_ = loadEnvFile()
	return Config{
		APIURL:     envOr("OMNIPORT_API_URL", defaultAPIURL),
		APIKey:     os.Getenv("OMNIPORT_API_KEY"),
		LedgerPath: os.Getenv("OMNIPORT_LEDGER_PATH"),
		Cutoff:     parseFloatOr("OMNIPORT_CUTOFF", 0.6),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f <= 1 {
			return f
		}
	}
	return fallback
}
