package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"notifyhub/internal/common/database"
	"notifyhub/internal/models"

	"github.com/lib/pq"
)

// NotificationStore persists notification rows. Mutating methods take a
// database.Querier so the service can run them inside its transaction.
type NotificationStore struct {
	db *sql.DB
}

func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// Insert stores a new notification and assigns its ID.
func (s *NotificationStore) Insert(ctx context.Context, q database.Querier, n *models.Notification) (int64, error) {
	err := q.QueryRowContext(ctx, `
		INSERT INTO notifications (title, content, type, status, create_by, update_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		n.Title, n.Content, n.Type, n.Status, n.CreateBy, n.UpdateDate,
	).Scan(&n.ID)
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}
	return 1, nil
}

// Update rewrites a notification row, returning the affected count.
func (s *NotificationStore) Update(ctx context.Context, q database.Querier, n *models.Notification) (int64, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE notifications
		SET title = $1, content = $2, type = $3, status = $4, update_date = $5
		WHERE id = $6`,
		n.Title, n.Content, n.Type, n.Status, n.UpdateDate, n.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("update notification %d: %w", n.ID, err)
	}
	return res.RowsAffected()
}

func (s *NotificationStore) Delete(ctx context.Context, q database.Querier, id int64) (int64, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete notification %d: %w", id, err)
	}
	return res.RowsAffected()
}

func (s *NotificationStore) BatchDelete(ctx context.Context, q database.Querier, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := q.ExecContext(ctx, `DELETE FROM notifications WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("batch delete notifications: %w", err)
	}
	return res.RowsAffected()
}

// Get returns nil, nil when the notification does not exist. Callers must
// nil-check before touching derived fields.
func (s *NotificationStore) Get(ctx context.Context, id int64) (*models.Notification, error) {
	var n models.Notification
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, content, type, status, create_by, update_date
		FROM notifications WHERE id = $1`, id,
	).Scan(&n.ID, &n.Title, &n.Content, &n.Type, &n.Status, &n.CreateBy, &n.UpdateDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification %d: %w", id, err)
	}
	return &n, nil
}

func (s *NotificationStore) List(ctx context.Context, f models.Filter) ([]models.Notification, error) {
	where, args := buildFilter(f)

	query := `
		SELECT id, title, content, type, status, create_by, update_date
		FROM notifications` + where + `
		ORDER BY update_date DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.Type, &n.Status, &n.CreateBy, &n.UpdateDate); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *NotificationStore) Count(ctx context.Context, f models.Filter) (int, error) {
	where, args := buildFilter(f)

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return count, nil
}

func buildFilter(f models.Filter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if f.Title != "" {
		args = append(args, "%"+f.Title+"%")
		conds = append(conds, "title LIKE $"+strconv.Itoa(len(args)))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		conds = append(conds, "type = $"+strconv.Itoa(len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
