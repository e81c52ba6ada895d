// Package dict resolves dictionary codes to display labels.
package dict

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheTTL = 10 * time.Minute

// Service looks labels up in the dict table with a redis read-through cache.
// The cache client is optional; without it every lookup hits the database.
type Service struct {
	db    *sql.DB
	cache *redis.Client
}

func New(db *sql.DB, cache *redis.Client) *Service {
	return &Service{db: db, cache: cache}
}

// Label resolves a (category, code) pair to its display string. An unknown
// code falls back to the code itself so read paths never fail on a missing
// dictionary row.
func (s *Service) Label(ctx context.Context, category, code string) (string, error) {
	key := "dict:" + category + ":" + code

	if s.cache != nil {
		if val, err := s.cache.Get(ctx, key).Result(); err == nil {
			return val, nil
		}
	}

	var label string
	err := s.db.QueryRowContext(ctx,
		`SELECT label FROM dict WHERE category = $1 AND code = $2`, category, code,
	).Scan(&label)
	if err == sql.ErrNoRows {
		return code, nil
	}
	if err != nil {
		return "", fmt.Errorf("dict lookup %s/%s: %w", category, code, err)
	}

	if s.cache != nil {
		// Cache write failures are invisible to the caller.
		_ = s.cache.Set(ctx, key, label, cacheTTL).Err()
	}

	return label, nil
}
