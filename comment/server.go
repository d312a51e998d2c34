package comment

import (
	"errors"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edel-social/edel-server/auth"
	"github.com/edel-social/edel-server/event"
	"github.com/edel-social/edel-server/httputil"
	"github.com/edel-social/edel-server/model"
	"github.com/edel-social/edel-server/moderation"
	"github.com/edel-social/edel-server/post"
	"github.com/edel-social/edel-server/profile"
	"github.com/edel-social/edel-server/query"
)

type Server struct {
	log       *zap.Logger
	store     Store
	posts     post.Store
	profiles  profile.Store
	moderator moderation.Service
	bus       *event.ActivityBus
	issuer    *auth.Issuer
}

func NewServer(
	log *zap.Logger,
	store Store,
	posts post.Store,
	profiles profile.Store,
	moderator moderation.Service,
	bus *event.ActivityBus,
	issuer *auth.Issuer,
) *Server {
	return &Server{
		log:       log,
		store:     store,
		posts:     posts,
		profiles:  profiles,
		moderator: moderator,
		bus:       bus,
		issuer:    issuer,
	}
}

func (s *Server) RegisterRoutes(r gin.IRouter) {
	requireAuth := auth.RequireAuth(s.issuer)

	g := r.Group("/comments")
	g.POST("/posts/:post_id", requireAuth, s.CreateComment)
	g.GET("/posts/:post_id", s.ListComments)
	g.GET("/:id", s.GetComment)
	g.DELETE("/:id", requireAuth, s.DeleteComment)
}

type commentResponse struct {
	CommentID string    `json:"comment_id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Alias     string    `json:"alias"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	IsDeleted bool      `json:"is_deleted"`
}

func toResponse(c *Comment) commentResponse {
	return commentResponse{
		CommentID: c.ID,
		PostID:    c.PostID,
		UserID:    c.UserID,
		Alias:     c.Alias,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		IsDeleted: c.IsDeleted,
	}
}

type listResponse struct {
	Comments []commentResponse `json:"comments"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	HasMore  bool              `json:"has_more"`
}

type createRequest struct {
	Content string `json:"content" binding:"required"`
}

func (s *Server) CreateComment(c *gin.Context) {
	ctx := c.Request.Context()
	userID := auth.MustClaims(c).UserID()
	postID := c.Param("post_id")
	log := s.log.With(zap.String("user_id", userID), zap.String("post_id", postID))

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.JSONBindError(c, "Invalid request body", err)
		return
	}

	content := model.NormalizeText(req.Content)
	if n := utf8.RuneCountInString(content); n < 1 || n > MaxContentLength {
		httputil.JSONError(c, http.StatusBadRequest, "Comment must be between 1 and 500 characters")
		return
	}

	p, ok := s.livePost(c, log, postID, "Failed to create comment")
	if !ok {
		return
	}

	author, err := s.profiles.GetProfile(ctx, userID)
	if errors.Is(err, profile.ErrNotFound) {
		httputil.JSONError(c, http.StatusNotFound, "User not found")
		return
	} else if err != nil {
		log.Error("Failed to get profile", zap.Error(err))
		httputil.InternalError(c, "Failed to create comment")
		return
	}

	verdict := s.moderator.ModerateText(ctx, content)
	if !verdict.IsSafe {
		log.Info("Comment rejected by moderation", zap.Strings("flagged_by", verdict.FlaggedBy))
		httputil.JSONRejection(c, "Comment rejected by automatic moderation", verdict)
		return
	}

	id, err := model.GenerateID()
	if err != nil {
		log.Error("Failed to generate comment id", zap.Error(err))
		httputil.InternalError(c, "Failed to create comment")
		return
	}

	created := &Comment{
		ID:        id,
		PostID:    postID,
		UserID:    userID,
		Alias:     author.Alias,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateComment(ctx, created); err != nil {
		log.Error("Failed to create comment", zap.Error(err))
		httputil.InternalError(c, "Failed to create comment")
		return
	}

	if _, err := s.posts.AdjustCounts(ctx, postID, 0, 1); err != nil {
		log.Warn("Failed to increment comments count", zap.Error(err))
	}

	if p.UserID != userID {
		_ = s.bus.OnEvent(p.UserID, &event.ActivityEvent{
			Type:      event.ActivityComment,
			PostID:    postID,
			ActorID:   userID,
			Alias:     author.Alias,
			CommentID: created.ID,
			Timestamp: created.CreatedAt,
		})
	}

	c.JSON(http.StatusCreated, toResponse(created))
}

func (s *Server) ListComments(c *gin.Context) {
	postID := c.Param("post_id")
	log := s.log.With(zap.String("post_id", postID))

	opts, ok := query.ParsePage(c.Query("page"), c.Query("page_size"))
	if !ok {
		httputil.JSONError(c, http.StatusBadRequest, "page must be at least 1 and page_size between 1 and 100")
		return
	}
	opts = append(opts, query.WithDescending())
	applied := query.ApplyOptions(opts...)

	if _, ok := s.livePost(c, log, postID, "Failed to get comments"); !ok {
		return
	}

	comments, total, err := s.store.ListComments(c.Request.Context(), postID, opts...)
	if err != nil {
		log.Error("Failed to list comments", zap.Error(err))
		httputil.InternalError(c, "Failed to get comments")
		return
	}

	resp := listResponse{
		Comments: make([]commentResponse, 0, len(comments)),
		Total:    total,
		Page:     applied.Page,
		PageSize: applied.PageSize,
		HasMore:  applied.HasMore(total),
	}
	for _, comment := range comments {
		resp.Comments = append(resp.Comments, toResponse(comment))
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetComment(c *gin.Context) {
	id := c.Param("id")

	comment, err := GetLiveComment(c.Request.Context(), s.store, id)
	if errors.Is(err, ErrNotFound) {
		httputil.JSONError(c, http.StatusNotFound, "Comment not found")
		return
	} else if err != nil {
		s.log.Error("Failed to get comment", zap.String("comment_id", id), zap.Error(err))
		httputil.InternalError(c, "Failed to get comment")
		return
	}

	c.JSON(http.StatusOK, toResponse(comment))
}

func (s *Server) DeleteComment(c *gin.Context) {
	ctx := c.Request.Context()
	userID := auth.MustClaims(c).UserID()
	id := c.Param("id")
	log := s.log.With(zap.String("user_id", userID), zap.String("comment_id", id))

	comment, err := GetLiveComment(ctx, s.store, id)
	if errors.Is(err, ErrNotFound) {
		httputil.JSONError(c, http.StatusNotFound, "Comment not found")
		return
	} else if err != nil {
		log.Error("Failed to get comment", zap.Error(err))
		httputil.InternalError(c, "Failed to delete comment")
		return
	}

	if comment.UserID != userID {
		httputil.JSONError(c, http.StatusForbidden, "You are not allowed to delete this comment")
		return
	}

	if err := s.store.SoftDelete(ctx, id); errors.Is(err, ErrNotFound) {
		httputil.JSONError(c, http.StatusNotFound, "Comment not found")
		return
	} else if err != nil {
		log.Error("Failed to delete comment", zap.Error(err))
		httputil.InternalError(c, "Failed to delete comment")
		return
	}

	_, err = s.posts.AdjustCounts(ctx, comment.PostID, 0, -1)
	if err != nil && !errors.Is(err, post.ErrNotFound) {
		log.Warn("Failed to decrement comments count", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Comment deleted successfully",
		"comment_id": id,
	})
}

func (s *Server) livePost(c *gin.Context, log *zap.Logger, postID, failure string) (*post.Post, bool) {
	p, err := post.GetLivePost(c.Request.Context(), s.posts, postID)
	if errors.Is(err, post.ErrNotFound) {
		httputil.JSONError(c, http.StatusNotFound, "Post not found")
		return nil, false
	} else if err != nil {
		log.Error("Failed to get post", zap.Error(err))
		httputil.InternalError(c, failure)
		return nil, false
	}
	return p, true
}
