package notification

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edel-social/edel-server/auth"
	"github.com/edel-social/edel-server/httputil"
)

type Server struct {
	log      *zap.Logger
	store    Store
	notifier *Notifier
	issuer   *auth.Issuer
}

func NewServer(log *zap.Logger, store Store, notifier *Notifier, issuer *auth.Issuer) *Server {
	return &Server{
		log:      log,
		store:    store,
		notifier: notifier,
		issuer:   issuer,
	}
}

func (s *Server) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/notifications", auth.RequireAuth(s.issuer))
	g.POST("/send", s.Send)
	g.GET("", s.List)
	g.PUT("/mark-as-read", s.MarkAsRead)
	g.DELETE("/:id", s.Delete)
}

type sendRequest struct {
	UserID string         `json:"user_id" binding:"required"`
	Title  string         `json:"title" binding:"required"`
	Body   string         `json:"body" binding:"required"`
	Data   map[string]any `json:"data"`
}

type sendResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	NotificationID string `json:"notification_id,omitempty"`
	PushSent       bool   `json:"push_sent"`
}

type notificationResponse struct {
	NotificationID string            `json:"notification_id"`
	UserID         string            `json:"user_id"`
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	Data           map[string]string `json:"data"`
	CreatedAt      time.Time         `json:"created_at"`
	IsRead         bool              `json:"is_read"`
	Type           string            `json:"type"`
}

func toResponse(n *Notification) notificationResponse {
	return notificationResponse{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Title:          n.Title,
		Body:           n.Body,
		Data:           n.Data,
		CreatedAt:      n.CreatedAt,
		IsRead:         n.IsRead,
		Type:           n.Type,
	}
}

type listResponse struct {
	Notifications []notificationResponse `json:"notifications"`
	Total         int                    `json:"total"`
	UnreadCount   int                    `json:"unread_count"`
}

type markAsReadRequest struct {
	NotificationIDs []string `json:"notification_ids" binding:"required"`
}

func (s *Server) Send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.JSONBindError(c, "Invalid request body", err)
		return
	}

	if utf8.RuneCountInString(req.Title) > MaxTitleLength {
		httputil.JSONError(c, http.StatusBadRequest, "Title must be at most 100 characters")
		return
	}
	if utf8.RuneCountInString(req.Body) > MaxBodyLength {
		httputil.JSONError(c, http.StatusBadRequest, "Body must be at most 500 characters")
		return
	}

	// FCM data payloads only carry strings.
	data := make(map[string]string, len(req.Data))
	for k, v := range req.Data {
		data[k] = fmt.Sprint(v)
	}

	notificationType := data["type"]
	if notificationType == "" {
		notificationType = TypeGeneral
	}

	result, err := s.notifier.SendToUser(c.Request.Context(), req.UserID, req.Title, req.Body, data, notificationType)
	if err != nil {
		s.log.Error("Failed to send notification", zap.String("user_id", req.UserID), zap.Error(err))
		httputil.InternalError(c, "Failed to send notification")
		return
	}

	message := "Notification saved and push sent"
	if !result.PushSent {
		message = "Notification saved (push failed)"
	}

	c.JSON(http.StatusOK, sendResponse{
		Success:        true,
		Message:        message,
		NotificationID: result.Notification.ID,
		PushSent:       result.PushSent,
	})
}

func (s *Server) List(c *gin.Context) {
	ctx := c.Request.Context()
	userID := auth.MustClaims(c).UserID()

	opts, ok := parseListOptions(c)
	if !ok {
		httputil.JSONError(c, http.StatusBadRequest, "limit must be between 1 and 100 and offset at least 0")
		return
	}

	notifications, total, err := s.store.ListNotifications(ctx, userID, opts)
	if err != nil {
		s.log.Error("Failed to list notifications", zap.String("user_id", userID), zap.Error(err))
		httputil.InternalError(c, "Failed to get notifications")
		return
	}

	unread, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		s.log.Error("Failed to count unread notifications", zap.String("user_id", userID), zap.Error(err))
		httputil.InternalError(c, "Failed to get notifications")
		return
	}

	resp := listResponse{
		Notifications: make([]notificationResponse, 0, len(notifications)),
		Total:         total,
		UnreadCount:   unread,
	}
	for _, n := range notifications {
		resp.Notifications = append(resp.Notifications, toResponse(n))
	}

	c.JSON(http.StatusOK, resp)
}

func parseListOptions(c *gin.Context) (ListOptions, bool) {
	opts := ListOptions{Limit: DefaultLimit}

	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > MaxLimit {
			return opts, false
		}
		opts.Limit = limit
	}

	if v := c.Query("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return opts, false
		}
		opts.Offset = offset
	}

	if v := c.Query("unread_only"); v != "" {
		unreadOnly, err := strconv.ParseBool(v)
		if err != nil {
			return opts, false
		}
		opts.UnreadOnly = unreadOnly
	}

	return opts, true
}

func (s *Server) MarkAsRead(c *gin.Context) {
	userID := auth.MustClaims(c).UserID()

	var req markAsReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.JSONBindError(c, "Invalid request body", err)
		return
	}

	updated, err := s.store.MarkRead(c.Request.Context(), userID, req.NotificationIDs)
	if err != nil {
		s.log.Error("Failed to mark notifications as read", zap.String("user_id", userID), zap.Error(err))
		httputil.InternalError(c, "Failed to mark notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       fmt.Sprintf("%d notifications marked as read", updated),
		"updated_count": updated,
	})
}

func (s *Server) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	userID := auth.MustClaims(c).UserID()
	id := c.Param("id")
	log := s.log.With(zap.String("user_id", userID), zap.String("notification_id", id))

	n, err := s.store.GetNotification(ctx, id)
	if errors.Is(err, ErrNotFound) {
		httputil.JSONError(c, http.StatusNotFound, "Notification not found")
		return
	} else if err != nil {
		log.Error("Failed to get notification", zap.Error(err))
		httputil.InternalError(c, "Failed to delete notification")
		return
	}

	if n.UserID != userID {
		httputil.JSONError(c, http.StatusForbidden, "You are not allowed to delete this notification")
		return
	}

	if err := s.store.DeleteNotification(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		log.Error("Failed to delete notification", zap.Error(err))
		httputil.InternalError(c, "Failed to delete notification")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Notification deleted successfully",
		"notification_id": id,
	})
}
