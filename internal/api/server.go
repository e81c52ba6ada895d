// Package api exposes the notification service over HTTP.
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "notifyhub/internal/common/errors"
	"notifyhub/internal/common/logger"
	"notifyhub/internal/models"
	"notifyhub/internal/service"
	"notifyhub/internal/session"
)

type Server struct {
	router   *gin.Engine
	svc      *service.NotificationService
	sessions *session.RedisRegistry
	logger   logger.Logger
}

func NewServer(svc *service.NotificationService, sessions *session.RedisRegistry, log logger.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:   router,
		svc:      svc,
		sessions: sessions,
		logger:   log.WithFields(map[string]interface{}{"component": "api"}),
	}
	s.setupRoutes()
	return s
}

func (s *Server) Run(address string) error {
	return s.router.Run(address)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1")
	{
		notifications := api.Group("/notifications")
		{
			notifications.POST("", s.handleSave())
			notifications.GET("", s.handleList())
			notifications.GET("/self", s.handleSelfList())
			notifications.POST("/batch-remove", s.handleBatchRemove())
			notifications.GET("/:id", s.handleGet())
			notifications.PUT("/:id", s.handleUpdate())
			notifications.DELETE("/:id", s.handleRemove())
			notifications.PUT("/:id/read", s.handleMarkRead())
		}

		// Session registration for push delivery. The connection owner calls
		// these; everything else in this service only reads the registry.
		sessions := api.Group("/sessions")
		{
			sessions.PUT("/:id", s.handleSessionConnect())
			sessions.POST("/:id/touch", s.handleSessionTouch())
			sessions.DELETE("/:id", s.handleSessionDisconnect())
		}
	}

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "notifyhub"})
	})
}

type notificationRequest struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	Type     string  `json:"type"`
	Status   string  `json:"status"`
	CreateBy int64   `json:"createBy"`
	UserIDs  []int64 `json:"userIds"`
}

func (r notificationRequest) toModel(id int64) *models.Notification {
	return &models.Notification{
		ID:       id,
		Title:    r.Title,
		Content:  r.Content,
		Type:     r.Type,
		Status:   r.Status,
		CreateBy: r.CreateBy,
		UserIDs:  r.UserIDs,
	}
}

func (s *Server) handleSave() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req notificationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		n := req.toModel(0)
		affected, err := s.svc.Save(c.Request.Context(), n)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": n.ID, "affected": affected})
	}
}

func (s *Server) handleUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		var req notificationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		affected, err := s.svc.Update(c.Request.Context(), req.toModel(id))
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"affected": affected})
	}
}

func (s *Server) handleRemove() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		affected, err := s.svc.Remove(c.Request.Context(), id)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"affected": affected})
	}
}

func (s *Server) handleBatchRemove() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			IDs []int64 `json:"ids"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ids is required"})
			return
		}

		affected, err := s.svc.BatchRemove(c.Request.Context(), req.IDs)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"affected": affected})
	}
}

func (s *Server) handleGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		n, err := s.svc.Get(c.Request.Context(), id)
		if err != nil {
			s.writeError(c, err)
			return
		}
		if n == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		c.JSON(http.StatusOK, n)
	}
}

func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		f := models.Filter{
			Title:  c.Query("title"),
			Type:   c.Query("type"),
			Status: c.Query("status"),
			Offset: queryInt(c, "offset", 0),
			Limit:  queryInt(c, "limit", 10),
		}

		rows, err := s.svc.List(c.Request.Context(), f)
		if err != nil {
			s.writeError(c, err)
			return
		}
		total, err := s.svc.Count(c.Request.Context(), f)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"rows": rows, "total": total})
	}
}

func (s *Server) handleSelfList() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.ParseInt(c.Query("userId"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}

		f := models.Filter{
			UserID: userID,
			Status: c.Query("status"),
			Offset: queryInt(c, "offset", 0),
			Limit:  queryInt(c, "limit", 10),
		}

		page, err := s.svc.SelfList(c.Request.Context(), f)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func (s *Server) handleMarkRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		userID, err := strconv.ParseInt(c.Query("userId"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}

		affected, err := s.svc.MarkRead(c.Request.Context(), id, userID)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"affected": affected})
	}
}

func (s *Server) handleSessionConnect() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			UserID  int64  `json:"userId"`
			Address string `json:"address"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.UserID == 0 || req.Address == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId and address are required"})
			return
		}

		if err := s.sessions.Connect(c.Request.Context(), models.Session{
			ID:      c.Param("id"),
			UserID:  req.UserID,
			Address: req.Address,
		}); err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "connected"})
	}
}

func (s *Server) handleSessionTouch() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.sessions.Touch(c.Request.Context(), c.Param("id")); err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func (s *Server) handleSessionDisconnect() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.sessions.Disconnect(c.Request.Context(), c.Param("id")); err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := apperrors.ErrorCode("INTERNAL")
	if stdErr, ok := err.(*apperrors.StandardError); ok {
		code = stdErr.Code
		if stdErr.Code == apperrors.ErrCodeValidationFailed {
			status = http.StatusBadRequest
		}
	}

	s.logger.WithError(err).Error("request failed", map[string]interface{}{
		"path":   c.FullPath(),
		"method": c.Request.Method,
	})
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	val := c.Query(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}
