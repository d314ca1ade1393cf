package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	// EngineDir is scanned for executable engine binaries; EnginePath pins
	// a single binary instead. One of the two is required.
	EngineDir  string
	EnginePath string

	Profile string
	FEN     string

	VariantName  string
	VariantsPath string

	RedisURL    string
	DatabaseURL string
	ListenAddr  string

	ProfileOverrideDir string

	RunTimeoutSec  int
	EngineThreads  int
	EngineHashMB   int
	ReportTTLHours int
	PerEngineLimit int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Profile:        "variant",
		FEN:            "startpos",
		RunTimeoutSec:  30,
		EngineThreads:  1,
		EngineHashMB:   16,
		ReportTTLHours: 24,
	}

	cfg.EngineDir = strings.TrimSpace(os.Getenv("ENGINE_DIR"))
	cfg.EnginePath = strings.TrimSpace(os.Getenv("ENGINE_PATH"))

	if v := strings.TrimSpace(os.Getenv("EVAL_PROFILE")); v != "" {
		cfg.Profile = v
	}
	if v := strings.TrimSpace(os.Getenv("EVAL_FEN")); v != "" {
		cfg.FEN = v
	}
	cfg.VariantName = strings.TrimSpace(os.Getenv("EVAL_VARIANT"))
	cfg.VariantsPath = strings.TrimSpace(os.Getenv("VARIANTS_PATH"))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.ListenAddr = strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	cfg.ProfileOverrideDir = strings.TrimSpace(os.Getenv("PROFILE_DIR"))

	if v := strings.TrimSpace(os.Getenv("RUN_TIMEOUT_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RunTimeoutSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_THREADS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EngineThreads = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_HASH_MB")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EngineHashMB = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("REPORT_TTL_HOURS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ReportTTLHours = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_SESSION_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PerEngineLimit = n
		}
	}

	if cfg.EngineDir == "" && cfg.EnginePath == "" {
		return nil, errors.New("ENGINE_DIR or ENGINE_PATH is required")
	}
	return cfg, nil
}
