package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"notifyhub/internal/common/logger"
	"notifyhub/internal/dispatch"
	"notifyhub/internal/models"
	"notifyhub/internal/service"
	"notifyhub/internal/session"
	"notifyhub/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(req dispatch.Request) {}

type stubDict struct{}

func (stubDict) Label(ctx context.Context, category, code string) (string, error) {
	return code, nil
}

type stubDirectory struct{}

func (stubDirectory) NamesByIDs(ctx context.Context, ids []int64) ([]string, error) {
	return nil, nil
}

func (stubDirectory) Get(ctx context.Context, id int64) (*models.User, error) {
	return nil, nil
}

func newTestServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	svc := service.NewNotificationService(
		db,
		store.NewNotificationStore(db),
		store.NewDeliveryRecordStore(db),
		stubDict{},
		stubDirectory{},
		noopDispatcher{},
		nil,
		logger.NewTestLogger(t),
		nil,
	)
	registry := session.NewRedisRegistry(client, "session:online:", 30*time.Minute)

	return NewServer(svc, registry, logger.NewTestLogger(t)), mock
}

func doRequest(s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w := doRequest(s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSaveNotification(t *testing.T) {
	s, mock := newTestServer(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO notifications`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectExec(`INSERT INTO delivery_records`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	w := doRequest(s, http.MethodPost, "/api/v1/notifications", map[string]interface{}{
		"title":    "Policy Update",
		"content":  "Remote work policy changed",
		"type":     "2",
		"status":   "1",
		"createBy": 7,
		"userIds":  []int64{1, 2},
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 42, resp["id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveNotification_ValidationError(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(s, http.MethodPost, "/api/v1/notifications", map[string]interface{}{
		"title":  "",
		"status": "1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetNotification_NotFound(t *testing.T) {
	s, mock := newTestServer(t)

	mock.ExpectQuery(`SELECT id, title, content, type, status, create_by, update_date`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := doRequest(s, http.MethodGet, "/api/v1/notifications/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetNotification_InvalidID(t *testing.T) {
	s, _ := newTestServer(t)
	w := doRequest(s, http.MethodGet, "/api/v1/notifications/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemoveNotification(t *testing.T) {
	s, mock := newTestServer(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id FROM delivery_records`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(1)))
	mock.ExpectExec(`DELETE FROM delivery_records`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM notifications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := doRequest(s, http.MethodDelete, "/api/v1/notifications/42", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRemove_RequiresIDs(t *testing.T) {
	s, _ := newTestServer(t)
	w := doRequest(s, http.MethodPost, "/api/v1/notifications/batch-remove", map[string]interface{}{
		"ids": []int64{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSelfList_RequiresUserID(t *testing.T) {
	s, _ := newTestServer(t)
	w := doRequest(s, http.MethodGet, "/api/v1/notifications/self", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(s, http.MethodPut, "/api/v1/sessions/sess-1", map[string]interface{}{
		"userId":  1,
		"address": "conn-a",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(s, http.MethodPost, "/api/v1/sessions/sess-1/touch", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, http.MethodDelete, "/api/v1/sessions/sess-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionConnect_RequiresFields(t *testing.T) {
	s, _ := newTestServer(t)
	w := doRequest(s, http.MethodPut, "/api/v1/sessions/sess-1", map[string]interface{}{
		"userId": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
