package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/park285/fairy-eval-harness/internal/config"
	"github.com/park285/fairy-eval-harness/internal/harness"
	"github.com/park285/fairy-eval-harness/internal/httpapi"
	"github.com/park285/fairy-eval-harness/internal/obslog"
	"github.com/park285/fairy-eval-harness/internal/profile"
	"github.com/park285/fairy-eval-harness/internal/reportstore"
	"github.com/park285/fairy-eval-harness/internal/uci"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	catalog, err := profile.New(cfg.ProfileOverrideDir)
	if err != nil {
		log.Fatalf("profile catalog error: %v", err)
	}

	pool := uci.NewPool(uci.PoolConfig{PerKeyCapacity: cfg.PerEngineLimit})
	defer pool.Close()

	runner := harness.NewRunner(pool, catalog, logger)

	var store *reportstore.Store
	if cfg.RedisURL != "" {
		store, err = reportstore.NewFromURL(cfg.RedisURL, time.Duration(cfg.ReportTTLHours)*time.Hour)
		if err != nil {
			log.Fatalf("report store init error: %v", err)
		}
		defer store.Close()
		runner.SetStore(store)
	}

	if cfg.DatabaseURL != "" {
		db, err := harness.OpenDatabase(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("run history init error: %v", err)
		}
		defer db.Close()
		runner.SetRepository(harness.NewRepository(db))
	}

	req := harness.RunRequest{
		Binary:  cfg.EnginePath,
		Profile: cfg.Profile,
		FEN:     cfg.FEN,
		Options: uci.Options{
			Threads:     cfg.EngineThreads,
			HashMB:      cfg.EngineHashMB,
			Variant:     cfg.VariantName,
			VariantPath: cfg.VariantsPath,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.RunTimeoutSec)*time.Second)
	results, runErr := runAll(ctx, runner, cfg, req)
	cancel()
	for _, result := range results {
		printResult(result)
	}
	if runErr != nil {
		logger.Error("run failed", zap.Error(runErr))
		if len(results) == 0 {
			os.Exit(1)
		}
	}

	// With a listen address the process stays up and serves archived runs.
	if cfg.ListenAddr == "" {
		return
	}
	if store == nil {
		log.Fatalf("LISTEN_ADDR requires REDIS_URL so the API has an archive to serve")
	}

	srv := httpapi.New(store, logger)
	go func() {
		logger.Info("results api listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
			logger.Error("results api stopped", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	_ = srv.Shutdown()
}

func runAll(ctx context.Context, runner *harness.Runner, cfg *appcfg.AppConfig, req harness.RunRequest) ([]*harness.RunResult, error) {
	if cfg.EnginePath != "" {
		result, err := runner.Run(ctx, req)
		if err != nil {
			return nil, err
		}
		return []*harness.RunResult{result}, nil
	}
	return runner.RunDir(ctx, cfg.EngineDir, req)
}

func printResult(result *harness.RunResult) {
	record := harness.BuildRunRecord(result)
	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		obslog.L().Error("encode result failed", zap.String("run", result.ID), zap.Error(err))
		return
	}
	fmt.Println(string(out))
}
