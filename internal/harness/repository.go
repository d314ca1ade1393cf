package harness

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/fairy-eval-harness/pkg/reportdto"
)

var ErrDuplicateRun = errors.New("harness run already recorded")

// Repository keeps the long-term run history.
type Repository interface {
	InsertRun(ctx context.Context, run *reportdto.Run) (int64, error)
	RecentRuns(ctx context.Context, binary string, limit int) ([]*reportdto.Run, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// OpenDatabase dials Postgres and verifies the connection.
func OpenDatabase(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (r *repository) InsertRun(ctx context.Context, run *reportdto.Run) (int64, error) {
	if run == nil {
		return 0, fmt.Errorf("nil run payload")
	}

	table, err := json.Marshal(run.Table)
	if err != nil {
		return 0, fmt.Errorf("marshal table: %w", err)
	}
	rowOrder, err := json.Marshal(run.RowOrder)
	if err != nil {
		return 0, fmt.Errorf("marshal row_order: %w", err)
	}

	const query = `
		INSERT INTO eval_runs (
			run_uuid,
			binary,
			profile,
			fen,
			variant,
			raw_report,
			row_order,
			report,
			started_at,
			duration_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9, $10)
		ON CONFLICT (run_uuid) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(
		ctx,
		query,
		run.ID,
		run.Binary,
		run.Profile,
		run.FEN,
		run.Variant,
		run.Raw,
		rowOrder,
		table,
		run.StartedAt,
		run.DurationMS,
	).Scan(&id)
	if err == sql.ErrNoRows || (err == nil && !id.Valid) {
		return 0, ErrDuplicateRun
	}
	if err != nil {
		return 0, fmt.Errorf("insert eval run: %w", err)
	}
	return id.Int64, nil
}

func (r *repository) RecentRuns(ctx context.Context, binary string, limit int) ([]*reportdto.Run, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
		SELECT
			run_uuid,
			binary,
			profile,
			fen,
			variant,
			raw_report,
			row_order,
			report,
			started_at,
			duration_ms
		FROM eval_runs
		WHERE binary = $1
		ORDER BY started_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, binary, limit)
	if err != nil {
		return nil, fmt.Errorf("query eval runs: %w", err)
	}
	defer rows.Close()

	var runs []*reportdto.Run
	for rows.Next() {
		var (
			run      reportdto.Run
			rowOrder []byte
			table    []byte
		)
		if err := rows.Scan(
			&run.ID,
			&run.Binary,
			&run.Profile,
			&run.FEN,
			&run.Variant,
			&run.Raw,
			&rowOrder,
			&table,
			&run.StartedAt,
			&run.DurationMS,
		); err != nil {
			return nil, fmt.Errorf("scan eval run: %w", err)
		}
		if len(rowOrder) > 0 {
			if err := json.Unmarshal(rowOrder, &run.RowOrder); err != nil {
				return nil, fmt.Errorf("unmarshal row_order: %w", err)
			}
		}
		if len(table) > 0 {
			if err := json.Unmarshal(table, &run.Table); err != nil {
				return nil, fmt.Errorf("unmarshal report: %w", err)
			}
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate eval runs: %w", err)
	}
	return runs, nil
}
