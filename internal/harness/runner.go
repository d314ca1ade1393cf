// Package harness drives evaluation-report runs against engine binaries:
// position setup, report capture, decoding, and archival of the results.
package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	chesslib "github.com/corentings/chess/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/fairy-eval-harness/internal/capture"
	"github.com/park285/fairy-eval-harness/internal/profile"
	"github.com/park285/fairy-eval-harness/internal/reportstore"
	"github.com/park285/fairy-eval-harness/internal/uci"
	"github.com/park285/fairy-eval-harness/internal/variantcfg"
)

const evalCommand = "eval"

type Runner struct {
	pool     *uci.Pool
	profiles *profile.Catalog
	log      *zap.Logger

	store *reportstore.Store
	repo  Repository
}

func NewRunner(pool *uci.Pool, profiles *profile.Catalog, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{pool: pool, profiles: profiles, log: log}
}

// SetStore enables Redis archival of run results.
func (r *Runner) SetStore(s *reportstore.Store) { r.store = s }

// SetRepository enables Postgres run history.
func (r *Runner) SetRepository(repo Repository) { r.repo = repo }

type RunRequest struct {
	Binary  string
	Profile string
	FEN     string
	Moves   []string

	// Variant, when set, is written to a variants.ini file and registered
	// with the engine before the position is loaded.
	Variant      *variantcfg.Variant
	VariantsPath string

	Options uci.Options
}

type RunResult struct {
	ID       string
	Binary   string
	Profile  string
	FEN      string
	Variant  string
	Report   *capture.Report
	Started  time.Time
	Duration time.Duration
}

// Run executes one report capture against one binary.
func (r *Runner) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	prof, err := r.profiles.Get(req.Profile)
	if err != nil {
		return nil, err
	}
	capCfg, err := prof.CaptureConfig()
	if err != nil {
		return nil, err
	}

	opt := req.Options
	variantName := opt.Variant
	if req.Variant != nil {
		path, err := r.writeVariants(req)
		if err != nil {
			return nil, err
		}
		opt.VariantPath = path
		opt.Variant = req.Variant.Name
		variantName = req.Variant.Name
	}
	if variantName == "" {
		// Standard-chess positions are checked up front; variant FENs are
		// left for the engine to judge.
		if err := validatePosition(req.FEN, req.Moves); err != nil {
			return nil, err
		}
	}

	session, err := r.pool.Acquire(ctx, req.Binary, opt)
	if err != nil {
		return nil, err
	}
	var releaseErr error
	defer func() {
		r.pool.Release(session, releaseErr)
	}()

	if err := session.NewGame(ctx); err != nil {
		releaseErr = err
		return nil, err
	}
	if err := session.Position(req.FEN, req.Moves); err != nil {
		releaseErr = err
		return nil, err
	}

	started := time.Now()
	report, err := session.CaptureReport(ctx, capture.New(capCfg, r.log), evalCommand)
	if err != nil {
		releaseErr = err
		return nil, fmt.Errorf("capture report from %s: %w", filepath.Base(req.Binary), err)
	}

	result := &RunResult{
		ID:       uuid.NewString(),
		Binary:   req.Binary,
		Profile:  req.Profile,
		FEN:      req.FEN,
		Variant:  variantName,
		Report:   report,
		Started:  started,
		Duration: time.Since(started),
	}
	r.archive(ctx, result)
	return result, nil
}

// RunDir sweeps every executable binary under dir with the same request.
// Failures are collected per binary; successful runs are still returned.
func (r *Runner) RunDir(ctx context.Context, dir string, req RunRequest) ([]*RunResult, error) {
	binaries, err := DiscoverBinaries(dir)
	if err != nil {
		return nil, err
	}
	if len(binaries) == 0 {
		return nil, fmt.Errorf("no executable engine binaries under %s", dir)
	}

	var (
		results []*RunResult
		errs    []error
	)
	for _, binary := range binaries {
		perReq := req
		perReq.Binary = binary
		result, err := r.Run(ctx, perReq)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(binary), err))
			continue
		}
		results = append(results, result)
	}
	return results, errors.Join(errs...)
}

// writeVariants renders the request's variant definition to the configured
// path, or to a temp file when no path is given.
func (r *Runner) writeVariants(req RunRequest) (string, error) {
	path := strings.TrimSpace(req.VariantsPath)
	if path == "" {
		f, err := os.CreateTemp("", "variants-*.ini")
		if err != nil {
			return "", fmt.Errorf("create variants file: %w", err)
		}
		path = f.Name()
		f.Close()
	}
	if err := variantcfg.WriteFile(path, []variantcfg.Variant{*req.Variant}); err != nil {
		return "", err
	}
	return path, nil
}

// archive persists the result wherever sinks are configured. Archival is
// best effort; a dead store must not fail the run itself.
func (r *Runner) archive(ctx context.Context, result *RunResult) {
	record := BuildRunRecord(result)
	if r.store != nil {
		if err := r.store.SaveRun(ctx, record.ID, record.Binary, record); err != nil {
			r.log.Warn("archive run to redis failed", zap.String("run", record.ID), zap.Error(err))
		}
	}
	if r.repo != nil {
		if _, err := r.repo.InsertRun(ctx, record); err != nil && !errors.Is(err, ErrDuplicateRun) {
			r.log.Warn("record run history failed", zap.String("run", record.ID), zap.Error(err))
		}
	}
}

func validatePosition(fen string, moves []string) error {
	var game *chesslib.Game
	if strings.TrimSpace(fen) == "" || fen == "startpos" {
		game = chesslib.NewGame()
	} else {
		option, err := chesslib.FEN(fen)
		if err != nil {
			return fmt.Errorf("parse fen %q: %w", fen, err)
		}
		game = chesslib.NewGame(option)
	}
	for _, mv := range moves {
		if err := game.PushNotationMove(mv, chesslib.UCINotation{}, nil); err != nil {
			return fmt.Errorf("apply move %q: %w", mv, err)
		}
	}
	return nil
}
