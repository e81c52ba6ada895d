package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"notifyhub/internal/common/database"
	"notifyhub/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DeliveryRecordStore persists one row per (notification, recipient) pair.
// The record set for a notification is always rebuilt wholesale on update,
// never diffed.
type DeliveryRecordStore struct {
	db *sql.DB
}

func NewDeliveryRecordStore(db *sql.DB) *DeliveryRecordStore {
	return &DeliveryRecordStore{db: db}
}

// BatchInsert creates one unread record per recipient. IDs are assigned here.
func (s *DeliveryRecordStore) BatchInsert(ctx context.Context, q database.Querier, records []models.DeliveryRecord) error {
	if len(records) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*4)
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.New().String()
		}
		base := i * 4
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4))
		args = append(args, records[i].ID, records[i].NotificationID, records[i].UserID, records[i].IsRead)
	}

	query := `INSERT INTO delivery_records (id, notification_id, user_id, is_read) VALUES ` +
		strings.Join(placeholders, ", ")

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("batch insert delivery records: %w", err)
	}
	return nil
}

func (s *DeliveryRecordStore) DeleteByNotificationID(ctx context.Context, q database.Querier, notificationID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM delivery_records WHERE notification_id = $1`, notificationID)
	if err != nil {
		return fmt.Errorf("delete delivery records for notification %d: %w", notificationID, err)
	}
	return nil
}

func (s *DeliveryRecordStore) BatchDeleteByNotificationIDs(ctx context.Context, q database.Querier, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := q.ExecContext(ctx, `DELETE FROM delivery_records WHERE notification_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("batch delete delivery records: %w", err)
	}
	return nil
}

// RecipientIDsByNotificationID reads the current recipient set. Runs against
// the given querier so removal can read inside its own transaction.
func (s *DeliveryRecordStore) RecipientIDsByNotificationID(ctx context.Context, q database.Querier, notificationID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT user_id FROM delivery_records WHERE notification_id = $1`, notificationID)
	if err != nil {
		return nil, fmt.Errorf("recipient ids for notification %d: %w", notificationID, err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// RecipientIDsByNotificationIDs returns the unioned recipient set.
func (s *DeliveryRecordStore) RecipientIDsByNotificationIDs(ctx context.Context, q database.Querier, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := q.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM delivery_records WHERE notification_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("recipient ids for notifications: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// MarkRead flips the read flag for one recipient's record.
func (s *DeliveryRecordStore) MarkRead(ctx context.Context, notificationID, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE delivery_records SET is_read = TRUE WHERE notification_id = $1 AND user_id = $2`,
		notificationID, userID)
	if err != nil {
		return 0, fmt.Errorf("mark read notification %d user %d: %w", notificationID, userID, err)
	}
	return res.RowsAffected()
}

// SelfList joins records to notifications for one recipient's own view.
func (s *DeliveryRecordStore) SelfList(ctx context.Context, f models.Filter) ([]models.SelfRow, int, error) {
	conds := []string{"r.user_id = $1"}
	args := []interface{}{f.UserID}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, "n.status = $"+strconv.Itoa(len(args)))
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM delivery_records r
		JOIN notifications n ON n.id = r.notification_id`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count self list: %w", err)
	}

	query := `
		SELECT n.id, n.title, n.type, r.is_read, n.create_by, n.update_date
		FROM delivery_records r
		JOIN notifications n ON n.id = r.notification_id` + where + `
		ORDER BY n.update_date DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("self list: %w", err)
	}
	defer rows.Close()

	var out []models.SelfRow
	for rows.Next() {
		var r models.SelfRow
		if err := rows.Scan(&r.ID, &r.Title, &r.Type, &r.IsRead, &r.CreateBy, &r.UpdateDate); err != nil {
			return nil, 0, fmt.Errorf("scan self row: %w", err)
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

func scanIDs(rows *sql.Rows) ([]int64, error) {
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
