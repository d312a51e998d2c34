package report

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edel-social/edel-server/account"
	"github.com/edel-social/edel-server/auth"
	"github.com/edel-social/edel-server/httputil"
	"github.com/edel-social/edel-server/model"
	"github.com/edel-social/edel-server/post"
)

type Server struct {
	log        *zap.Logger
	store      Store
	posts      post.Store
	authorizer *account.Authorizer
	issuer     *auth.Issuer
}

func NewServer(
	log *zap.Logger,
	store Store,
	posts post.Store,
	authorizer *account.Authorizer,
	issuer *auth.Issuer,
) *Server {
	return &Server{
		log:        log,
		store:      store,
		posts:      posts,
		authorizer: authorizer,
		issuer:     issuer,
	}
}

func (s *Server) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/reports", auth.RequireAuth(s.issuer))
	g.POST("/posts/:post_id", s.CreateReport)

	admin := g.Group("", s.authorizer.RequireAdmin())
	admin.GET("", s.ListReports)
	admin.GET("/:id", s.GetReport)
	admin.PUT("/:id/status", s.UpdateStatus)
}

type reportResponse struct {
	ReportID    string     `json:"report_id"`
	PostID      string     `json:"post_id"`
	ReportedBy  string     `json:"reported_by"`
	Reason      string     `json:"reason"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	ReviewedBy  *string    `json:"reviewed_by"`
}

func toResponse(r *Report) reportResponse {
	resp := reportResponse{
		ReportID:   r.ID,
		PostID:     r.PostID,
		ReportedBy: r.ReporterID,
		Reason:     r.Reason,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
		ReviewedAt: r.ReviewedAt,
	}
	if r.Description != "" {
		resp.Description = &r.Description
	}
	if r.ReviewedBy != "" {
		resp.ReviewedBy = &r.ReviewedBy
	}
	return resp
}

type listResponse struct {
	Reports      []reportResponse `json:"reports"`
	Total        int              `json:"total"`
	PendingCount int              `json:"pending_count"`
}

type createRequest struct {
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) CreateReport(c *gin.Context) {
	ctx := c.Request.Context()
	userID := auth.MustClaims(c).UserID()
	postID := c.Param("post_id")
	log := s.log.With(zap.String("user_id", userID), zap.String("post_id", postID))

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.JSONBindError(c, "Invalid request body", err)
		return
	}

	if !IsValidReason(req.Reason) {
		httputil.JSONError(c, http.StatusBadRequest, fmt.Sprintf("Invalid reason. Must be one of: %s", strings.Join(ValidReasons, ", ")))
		return
	}
	description := model.NormalizeText(req.Description)
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		httputil.JSONError(c, http.StatusBadRequest, "Description must be at most 500 characters")
		return
	}

	_, err := post.GetLivePost(ctx, s.posts, postID)
	if errors.Is(err, post.ErrNotFound) {
		httputil.JSONError(c, http.StatusNotFound, "Post not found")
		return
	} else if err != nil {
		log.Error("Failed to get post", zap.Error(err))
		httputil.InternalError(c, "Failed to create report")
		return
	}

	id, err := model.GenerateID()
	if err != nil {
		log.Error("Failed to generate report id", zap.Error(err))
		httputil.InternalError(c, "Failed to create report")
		return
	}

	created := &Report{
		ID:          id,
		PostID:      postID,
		ReporterID:  userID,
		Reason:      req.Reason,
		Description: description,
		Status:      StatusPending,
		CreatedAt:   time.Now(),
	}
	err = s.store.CreateReport(ctx, created)
	if errors.Is(err, ErrExists) {
		httputil.JSONError(c, http.StatusBadRequest, "You have already reported this post")
		return
	} else if err != nil {
		log.Error("Failed to create report", zap.Error(err))
		httputil.InternalError(c, "Failed to create report")
		return
	}

	log.Info("Post reported", zap.String("report_id", id), zap.String("reason", req.Reason))
	c.JSON(http.StatusCreated, toResponse(created))
}

func (s *Server) ListReports(c *gin.Context) {
	ctx := c.Request.Context()

	status := c.Query("status")
	if status != "" && !IsValidStatus(status) {
		httputil.JSONError(c, http.StatusBadRequest, fmt.Sprintf("Invalid status. Must be one of: %s", strings.Join(ValidStatuses, ", ")))
		return
	}

	reports, err := s.store.ListReports(ctx, status)
	if err != nil {
		s.log.Error("Failed to list reports", zap.Error(err))
		httputil.InternalError(c, "Failed to get reports")
		return
	}

	pending, err := s.store.CountByStatus(ctx, StatusPending)
	if err != nil {
		s.log.Error("Failed to count pending reports", zap.Error(err))
		httputil.InternalError(c, "Failed to get reports")
		return
	}

	resp := listResponse{
		Reports:      make([]reportResponse, 0, len(reports)),
		Total:        len(reports),
		PendingCount: pending,
	}
	for _, r := range reports {
		resp.Reports = append(resp.Reports, toResponse(r))
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetReport(c *gin.Context) {
	id := c.Param("id")

	r, err := s.store.GetReport(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		httputil.JSONError(c, http.StatusNotFound, "Report not found")
		return
	} else if err != nil {
		s.log.Error("Failed to get report", zap.String("report_id", id), zap.Error(err))
		httputil.InternalError(c, "Failed to get report")
		return
	}

	c.JSON(http.StatusOK, toResponse(r))
}

func (s *Server) UpdateStatus(c *gin.Context) {
	adminID := auth.MustClaims(c).UserID()
	id := c.Param("id")
	log := s.log.With(zap.String("admin_id", adminID), zap.String("report_id", id))

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.JSONBindError(c, "Invalid request body", err)
		return
	}

	if !IsReviewStatus(req.Status) {
		httputil.JSONError(c, http.StatusBadRequest, "Invalid status. Must be one of: reviewed, resolved")
		return
	}

	updated, err := s.store.UpdateStatus(c.Request.Context(), id, req.Status, adminID)
	if errors.Is(err, ErrNotFound) {
		httputil.JSONError(c, http.StatusNotFound, "Report not found")
		return
	} else if err != nil {
		log.Error("Failed to update report status", zap.Error(err))
		httputil.InternalError(c, "Failed to update report")
		return
	}

	log.Info("Report reviewed", zap.String("status", updated.Status))
	c.JSON(http.StatusOK, gin.H{
		"message":    fmt.Sprintf("Report status updated to %s", updated.Status),
		"report_id":  updated.ID,
		"new_status": updated.Status,
	})
}
