// Package directory resolves user IDs to display data.
package directory

import (
	"context"
	"database/sql"
	"fmt"

	"notifyhub/internal/models"

	"github.com/lib/pq"
)

type Directory struct {
	db *sql.DB
}

func New(db *sql.DB) *Directory {
	return &Directory{db: db}
}

// NamesByIDs returns display names in the order the store yields them.
func (d *Directory) NamesByIDs(ctx context.Context, ids []int64) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT name FROM users WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("names by ids: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Get returns nil, nil for an unknown user.
func (d *Directory) Get(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := d.db.QueryRowContext(ctx,
		`SELECT id, name, email FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &u, nil
}
