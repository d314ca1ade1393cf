// Package reportstore archives decoded harness runs in Redis so results
// survive the process and can be served over the API.
package reportstore

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 24 * time.Hour

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// NewFromURL dials Redis from a redis:// URL.
func NewFromURL(url string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(url))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return New(redis.NewClient(opts), ttl), nil
}

func (s *Store) Close() error { return s.rdb.Close() }

func (s *Store) keyRun(id string) string { return "evalrun:" + strings.TrimSpace(id) }
func (s *Store) keyLatest(binary string) string {
	return "evalrun:latest:" + filepath.Base(strings.TrimSpace(binary))
}

// SaveRun archives one run and points the binary's latest index at it.
func (s *Store) SaveRun(ctx context.Context, id, binary string, payload any) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("run id required")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	if err := s.rdb.Set(ctx, s.keyRun(id), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	if strings.TrimSpace(binary) != "" {
		if err := s.rdb.Set(ctx, s.keyLatest(binary), id, s.ttl).Err(); err != nil {
			return fmt.Errorf("index latest run: %w", err)
		}
	}
	return nil
}

// LoadRun unmarshals an archived run into out. A missing id yields
// (false, nil).
func (s *Store) LoadRun(ctx context.Context, id string, out any) (bool, error) {
	raw, err := s.rdb.Get(ctx, s.keyRun(id)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load run: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("unmarshal run: %w", err)
	}
	return true, nil
}

// LatestRunID returns the most recent run id recorded for a binary, or ""
// when none exists.
func (s *Store) LatestRunID(ctx context.Context, binary string) (string, error) {
	id, err := s.rdb.Get(ctx, s.keyLatest(binary)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load latest run id: %w", err)
	}
	return id, nil
}
