// Package service orchestrates notification mutations. Each mutating
// operation is one transaction spanning the notification row and its
// delivery records; fan-out and search indexing are handed off only after
// the transaction has committed.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"notifyhub/internal/common/database"
	"notifyhub/internal/common/errors"
	"notifyhub/internal/common/logger"
	"notifyhub/internal/common/metrics"
	"notifyhub/internal/common/observability"
	"notifyhub/internal/common/validation"
	"notifyhub/internal/dispatch"
	"notifyhub/internal/models"
	"notifyhub/internal/store"

	"go.opentelemetry.io/otel/trace"
)

// Dispatcher schedules an asynchronous fan-out. Implemented by
// dispatch.Dispatcher; faked in tests.
type Dispatcher interface {
	Dispatch(req dispatch.Request)
}

// Indexer mirrors notifications into the search backend. Optional.
type Indexer interface {
	Index(n models.Notification)
	Remove(ids []int64)
}

// LabelResolver resolves a dict code to its display label.
type LabelResolver interface {
	Label(ctx context.Context, category, code string) (string, error)
}

// UserDirectory resolves user IDs to display data.
type UserDirectory interface {
	NamesByIDs(ctx context.Context, ids []int64) ([]string, error)
	Get(ctx context.Context, id int64) (*models.User, error)
}

type NotificationService struct {
	db            *sql.DB
	notifications *store.NotificationStore
	records       *store.DeliveryRecordStore
	dict          LabelResolver
	directory     UserDirectory
	dispatcher    Dispatcher
	indexer       Indexer
	logger        logger.Logger
	obs           *observability.Observability
}

func NewNotificationService(
	db *sql.DB,
	notifications *store.NotificationStore,
	records *store.DeliveryRecordStore,
	dict LabelResolver,
	directory UserDirectory,
	dispatcher Dispatcher,
	indexer Indexer,
	log logger.Logger,
	obs *observability.Observability,
) *NotificationService {
	return &NotificationService{
		db:            db,
		notifications: notifications,
		records:       records,
		dict:          dict,
		directory:     directory,
		dispatcher:    dispatcher,
		indexer:       indexer,
		logger:        log.WithFields(map[string]interface{}{"component": "notification-service"}),
		obs:           obs,
	}
}

// Save inserts a notification and one unread delivery record per recipient
// in a single transaction. A published notification additionally triggers a
// fan-out carrying its title, scheduled after commit.
func (s *NotificationService) Save(ctx context.Context, n *models.Notification) (int64, error) {
	ctx, span := s.startSpan(ctx, "notification.save")
	defer span.End()

	if err := validation.ValidateNotification(n); err != nil {
		return 0, errors.NewValidationError(err.Error())
	}

	n.UpdateDate = time.Now().UTC()

	var affected int64
	err := database.WithinTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		affected, err = s.notifications.Insert(ctx, tx, n)
		if err != nil {
			return err
		}
		return s.records.BatchInsert(ctx, tx, buildRecords(n))
	})
	if err != nil {
		return 0, errors.NewPersistenceError("save", err)
	}

	metrics.NotificationsSaved.WithLabelValues("save").Inc()
	s.logger.Info("notification saved", map[string]interface{}{
		"notifyId":   n.ID,
		"status":     n.Status,
		"recipients": len(n.UserIDs),
	})

	s.afterPublishWrite(n)
	return affected, nil
}

// Update rewrites the notification row and rebuilds its full delivery record
// set (delete all, reinsert) in one transaction. Read flags reset for every
// recipient, including previously-read ones.
func (s *NotificationService) Update(ctx context.Context, n *models.Notification) (int64, error) {
	ctx, span := s.startSpan(ctx, "notification.update")
	defer span.End()

	if err := validation.ValidateNotification(n); err != nil {
		return 0, errors.NewValidationError(err.Error())
	}

	n.UpdateDate = time.Now().UTC()

	var affected int64
	err := database.WithinTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		affected, err = s.notifications.Update(ctx, tx, n)
		if err != nil {
			return err
		}
		if err := s.records.DeleteByNotificationID(ctx, tx, n.ID); err != nil {
			return err
		}
		return s.records.BatchInsert(ctx, tx, buildRecords(n))
	})
	if err != nil {
		return 0, errors.NewPersistenceError("update", err)
	}

	metrics.NotificationsSaved.WithLabelValues("update").Inc()
	s.logger.Info("notification updated", map[string]interface{}{
		"notifyId":   n.ID,
		"status":     n.Status,
		"recipients": len(n.UserIDs),
	})

	s.afterPublishWrite(n)
	return affected, nil
}

// Remove deletes a notification and its delivery records in one transaction,
// then signals the former recipients on the update queue. The recipient set
// is read inside the transaction, before the records disappear.
func (s *NotificationService) Remove(ctx context.Context, id int64) (int64, error) {
	ctx, span := s.startSpan(ctx, "notification.remove")
	defer span.End()

	var affected int64
	var userIDs []int64
	err := database.WithinTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		userIDs, err = s.records.RecipientIDsByNotificationID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.records.DeleteByNotificationID(ctx, tx, id); err != nil {
			return err
		}
		affected, err = s.notifications.Delete(ctx, tx, id)
		return err
	})
	if err != nil {
		return 0, errors.NewPersistenceError("remove", err)
	}

	metrics.NotificationsRemoved.Inc()
	s.logger.Info("notification removed", map[string]interface{}{
		"notifyId":   id,
		"recipients": len(userIDs),
	})

	s.dispatcher.Dispatch(dispatch.Request{
		UserIDs:     userIDs,
		Destination: dispatch.DestUpdateNotifications,
	})
	if s.indexer != nil {
		s.indexer.Remove([]int64{id})
	}
	return affected, nil
}

// BatchRemove is Remove over several notifications; one transaction covers
// all deletions, and the fan-out targets the unioned recipient set.
func (s *NotificationService) BatchRemove(ctx context.Context, ids []int64) (int64, error) {
	ctx, span := s.startSpan(ctx, "notification.batchRemove")
	defer span.End()

	if len(ids) == 0 {
		return 0, nil
	}

	var affected int64
	var userIDs []int64
	err := database.WithinTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		userIDs, err = s.records.RecipientIDsByNotificationIDs(ctx, tx, ids)
		if err != nil {
			return err
		}
		if err := s.records.BatchDeleteByNotificationIDs(ctx, tx, ids); err != nil {
			return err
		}
		affected, err = s.notifications.BatchDelete(ctx, tx, ids)
		return err
	})
	if err != nil {
		return 0, errors.NewPersistenceError("batchRemove", err)
	}

	metrics.NotificationsRemoved.Add(float64(len(ids)))
	s.logger.Info("notifications removed", map[string]interface{}{
		"notifyIds":  ids,
		"recipients": len(userIDs),
	})

	s.dispatcher.Dispatch(dispatch.Request{
		UserIDs:     userIDs,
		Destination: dispatch.DestUpdateNotifications,
	})
	if s.indexer != nil {
		s.indexer.Remove(ids)
	}
	return affected, nil
}

// MarkRead flips one recipient's read flag; returns the affected count.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID int64) (int64, error) {
	affected, err := s.records.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return 0, errors.NewPersistenceError("markRead", err)
	}
	return affected, nil
}

// Get returns nil, nil when the notification is absent. Present results
// carry the resolved type label, recipient IDs and joined display names.
func (s *NotificationService) Get(ctx context.Context, id int64) (*models.Notification, error) {
	n, err := s.notifications.Get(ctx, id)
	if err != nil {
		return nil, errors.NewPersistenceError("get", err)
	}
	if n == nil {
		return nil, nil
	}

	userIDs, err := s.records.RecipientIDsByNotificationID(ctx, s.db, id)
	if err != nil {
		return nil, errors.NewPersistenceError("get", err)
	}
	n.UserIDs = userIDs

	if label, err := s.dict.Label(ctx, models.DictNotifyType, n.Type); err == nil {
		n.TypeLabel = label
	}

	names, err := s.directory.NamesByIDs(ctx, userIDs)
	if err != nil {
		return nil, errors.NewPersistenceError("get", err)
	}
	n.UserNames = joinNames(names)

	return n, nil
}

// List returns notifications with resolved type labels.
func (s *NotificationService) List(ctx context.Context, f models.Filter) ([]models.Notification, error) {
	notifications, err := s.notifications.List(ctx, f)
	if err != nil {
		return nil, errors.NewPersistenceError("list", err)
	}

	for i := range notifications {
		if label, err := s.dict.Label(ctx, models.DictNotifyType, notifications[i].Type); err == nil {
			notifications[i].TypeLabel = label
		}
	}
	return notifications, nil
}

func (s *NotificationService) Count(ctx context.Context, f models.Filter) (int, error) {
	count, err := s.notifications.Count(ctx, f)
	if err != nil {
		return 0, errors.NewPersistenceError("count", err)
	}
	return count, nil
}

// SelfList is one recipient's own view, with elapsed time since update and
// the sender's display name resolved per row.
func (s *NotificationService) SelfList(ctx context.Context, f models.Filter) (*models.Page, error) {
	rows, total, err := s.records.SelfList(ctx, f)
	if err != nil {
		return nil, errors.NewPersistenceError("selfList", err)
	}

	senders := map[int64]string{}
	for i := range rows {
		rows[i].Before = timeBefore(rows[i].UpdateDate)

		name, ok := senders[rows[i].CreateBy]
		if !ok {
			u, err := s.directory.Get(ctx, rows[i].CreateBy)
			if err != nil {
				return nil, errors.NewPersistenceError("selfList", err)
			}
			if u != nil {
				name = u.Name
			}
			senders[rows[i].CreateBy] = name
		}
		rows[i].Sender = name
	}

	return &models.Page{Rows: rows, Total: total}, nil
}

// afterPublishWrite schedules the post-commit side effects of save/update:
// fan-out only when the notification is published, indexing likewise.
func (s *NotificationService) afterPublishWrite(n *models.Notification) {
	if n.Status != models.StatusPublished {
		return
	}

	s.dispatcher.Dispatch(dispatch.Request{
		UserIDs:     n.UserIDs,
		Destination: dispatch.DestNotifications,
		Message:     n.Title,
	})
	if s.indexer != nil {
		s.indexer.Index(*n)
	}
}

func (s *NotificationService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s.obs == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.obs.StartSpan(ctx, name)
}

func buildRecords(n *models.Notification) []models.DeliveryRecord {
	records := make([]models.DeliveryRecord, 0, len(n.UserIDs))
	for _, userID := range n.UserIDs {
		records = append(records, models.DeliveryRecord{
			NotificationID: n.ID,
			UserID:         userID,
			IsRead:         false,
		})
	}
	return records
}

func joinNames(names []string) string {
	out := ""
	for i, name := range names {
		if i > 0 {
			out += ","
		}
		out += name
	}
	return out
}

// timeBefore renders the elapsed time since t for the self view.
func timeBefore(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	}
}
