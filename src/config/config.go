package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	LogLevel string

	// AutoMatchThreshold is the minimum engine confidence (0-100) at which
	// the auto-matching pass commits a pair without review.
	AutoMatchThreshold int

	// BalanceTolerance is the largest absolute difference at which a
	// reconciliation may be completed.
	BalanceTolerance float64

	// AmountMatchTolerance is the largest absolute amount difference the
	// engine still treats as an exact amount match.
	AmountMatchTolerance float64

	// SuggestionLimit caps the ranked candidate list returned for one
	// bank transaction.
	SuggestionLimit int

	SummaryCacheExpiration    time.Duration
	SummaryCacheCleanupPeriod time.Duration
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	autoMatchThreshold := getEnvAsInt("AUTO_MATCH_THRESHOLD", 80)
	if autoMatchThreshold < 0 || autoMatchThreshold > 100 {
		log.Printf("WARNING: AUTO_MATCH_THRESHOLD %d out of range [0,100]. Using default 80.", autoMatchThreshold)
		autoMatchThreshold = 80
	}

	balanceTolerance := getEnvAsFloat("BALANCE_TOLERANCE", 0.01)
	amountMatchTolerance := getEnvAsFloat("AMOUNT_MATCH_TOLERANCE", 0.01)

	summaryCacheExpiryStr := getEnv("SUMMARY_CACHE_EXPIRATION", "15m")
	summaryCacheExpiry, err := time.ParseDuration(summaryCacheExpiryStr)
	if err != nil {
		log.Printf("WARNING: Invalid SUMMARY_CACHE_EXPIRATION format '%s'. Using default 15m. Error: %v", summaryCacheExpiryStr, err)
		summaryCacheExpiry = 15 * time.Minute
	}

	summaryCacheCleanupStr := getEnv("SUMMARY_CACHE_CLEANUP", "30m")
	summaryCacheCleanup, err := time.ParseDuration(summaryCacheCleanupStr)
	if err != nil {
		log.Printf("WARNING: Invalid SUMMARY_CACHE_CLEANUP format '%s'. Using default 30m. Error: %v", summaryCacheCleanupStr, err)
		summaryCacheCleanup = 30 * time.Minute
	}

	Cfg = &AppConfig{
		LogLevel:                  getEnv("LOG_LEVEL", "info"),
		AutoMatchThreshold:        autoMatchThreshold,
		BalanceTolerance:          balanceTolerance,
		AmountMatchTolerance:      amountMatchTolerance,
		SuggestionLimit:           getEnvAsInt("SUGGESTION_LIMIT", 10),
		SummaryCacheExpiration:    summaryCacheExpiry,
		SummaryCacheCleanupPeriod: summaryCacheCleanup,
	}

	log.Println("Application configuration loaded.")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("WARNING: Invalid integer value for %s: '%s'. Using default %d.", key, valueStr, fallback)
		return fallback
	}
	return value
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("WARNING: Invalid float value for %s: '%s'. Using default %g.", key, valueStr, fallback)
		return fallback
	}
	return value
}
