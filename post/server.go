package post

import (
	"context"
	"errors"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edel-social/edel-server/auth"
	"github.com/edel-social/edel-server/blob"
	"github.com/edel-social/edel-server/httputil"
	"github.com/edel-social/edel-server/image"
	"github.com/edel-social/edel-server/model"
	"github.com/edel-social/edel-server/moderation"
	"github.com/edel-social/edel-server/profile"
	"github.com/edel-social/edel-server/query"
	"github.com/edel-social/edel-server/s3"
)

const (
	MaxContentLength = 500

	ModerationStatusApproved = "approved"
)

// LikeChecker reports which of postIDs userID has liked.
type LikeChecker interface {
	LikedPosts(ctx context.Context, userID string, postIDs []string) (map[string]bool, error)
}

type Server struct {
	log       *zap.Logger
	store     Store
	profiles  profile.Store
	likes     LikeChecker
	moderator moderation.Service
	uploader  *blob.Uploader
	issuer    *auth.Issuer
}

func NewServer(
	log *zap.Logger,
	store Store,
	profiles profile.Store,
	likes LikeChecker,
	moderator moderation.Service,
	uploader *blob.Uploader,
	issuer *auth.Issuer,
) *Server {
	return &Server{
		log:       log,
		store:     store,
		profiles:  profiles,
		likes:     likes,
		moderator: moderator,
		uploader:  uploader,
		issuer:    issuer,
	}
}

func (s *Server) RegisterRoutes(r gin.IRouter) {
	requireAuth := auth.RequireAuth(s.issuer)

	g := r.Group("/posts")
	g.POST("", requireAuth, s.CreatePost)
	g.POST("/upload", requireAuth, s.CreatePostWithImage)
	g.GET("", auth.OptionalAuth(s.issuer), s.ListPosts)
	g.GET("/:id", auth.OptionalAuth(s.issuer), s.GetPost)
	g.DELETE("/:id", requireAuth, s.DeletePost)
}

type PostResponse struct {
	PostID        string    `json:"post_id"`
	UserID        string    `json:"user_id"`
	Alias         string    `json:"alias"`
	Content       string    `json:"content"`
	ImageURL      *string   `json:"image_url"`
	CreatedAt     time.Time `json:"created_at"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	IsDeleted     bool      `json:"is_deleted"`

	// UserLiked is only set for authenticated callers.
	UserLiked *bool `json:"user_liked"`
}

func ToResponse(p *Post) PostResponse {
	resp := PostResponse{
		PostID:        p.ID,
		UserID:        p.UserID,
		Alias:         p.Alias,
		Content:       p.Content,
		CreatedAt:     p.CreatedAt,
		LikesCount:    p.LikesCount,
		CommentsCount: p.CommentsCount,
		IsDeleted:     p.IsDeleted,
	}
	if p.ImageURL != "" {
		imageURL := p.ImageURL
		resp.ImageURL = &imageURL
	}
	return resp
}

type createRequest struct {
	Content  string  `json:"content" binding:"required"`
	ImageURL *string `json:"image_url"`
}

type createResponse struct {
	Message          string `json:"message"`
	PostID           string `json:"post_id"`
	ModerationStatus string `json:"moderation_status"`
}

// ValidateContent trims content and checks it is 1 to 500 characters long.
func ValidateContent(content string) (string, bool) {
	content = model.NormalizeText(content)
	n := utf8.RuneCountInString(content)
	return content, n >= 1 && n <= MaxContentLength
}

func (s *Server) CreatePost(c *gin.Context) {
	ctx := c.Request.Context()
	userID := auth.MustClaims(c).UserID()
	log := s.log.With(zap.String("user_id", userID))

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.JSONBindError(c, "Invalid request body", err)
		return
	}

	content, ok := ValidateContent(req.Content)
	if !ok {
		httputil.JSONError(c, http.StatusBadRequest, "Content must be between 1 and 500 characters")
		return
	}

	var imageURL string
	if req.ImageURL != nil && *req.ImageURL != "" {
		if !httputil.IsHTTPURL(*req.ImageURL) {
			httputil.JSONError(c, http.StatusBadRequest, "image_url must be an http(s) URL")
			return
		}
		imageURL = *req.ImageURL
	}

	verdict := s.moderator.ModerateText(ctx, content)
	if !verdict.IsSafe {
		log.Info("Post rejected by moderation", zap.Strings("flagged_by", verdict.FlaggedBy))
		httputil.JSONRejection(c, "Content rejected by automatic moderation", verdict)
		return
	}

	alias, ok := s.authorAlias(c, log, userID)
	if !ok {
		return
	}

	p, ok := s.createPost(c, log, userID, alias, content, imageURL, verdict)
	if !ok {
		return
	}

	c.JSON(http.StatusCreated, createResponse{
		Message:          "Post created successfully",
		PostID:           p.ID,
		ModerationStatus: ModerationStatusApproved,
	})
}

func (s *Server) CreatePostWithImage(c *gin.Context) {
	ctx := c.Request.Context()
	userID := auth.MustClaims(c).UserID()
	log := s.log.With(zap.String("user_id", userID))

	data, err := httputil.ReadImage(c, "image", httputil.MaxImageSize)
	if httputil.IsUploadError(err) {
		httputil.JSONError(c, http.StatusBadRequest, err.Error())
		return
	} else if err != nil {
		log.Warn("Failed to read upload", zap.Error(err))
		httputil.JSONError(c, http.StatusBadRequest, "Failed to read image")
		return
	}

	content, ok := ValidateContent(c.PostForm("content"))
	if !ok {
		httputil.JSONError(c, http.StatusBadRequest, "Content must be between 1 and 500 characters")
		return
	}

	verdict := s.moderator.ModerateText(ctx, content)
	if !verdict.IsSafe {
		log.Info("Post rejected by moderation", zap.Strings("flagged_by", verdict.FlaggedBy))
		httputil.JSONRejection(c, "Content rejected by automatic moderation", verdict)
		return
	}

	alias, ok := s.authorAlias(c, log, userID)
	if !ok {
		return
	}

	imageID, err := model.GenerateID()
	if err != nil {
		log.Error("Failed to generate image id", zap.Error(err))
		httputil.InternalError(c, "Failed to create post")
		return
	}

	b, imageVerdict, err := s.uploader.UploadImage(ctx, userID, s3.PostImageKey(userID, imageID), data)
	if errors.Is(err, image.ErrUnsupportedFormat) || errors.Is(err, image.ErrEmpty) {
		httputil.JSONError(c, http.StatusBadRequest, err.Error())
		return
	} else if err != nil {
		log.Error("Failed to upload post image", zap.Error(err))
		httputil.InternalError(c, "Failed to upload image")
		return
	}
	if !imageVerdict.IsSafe {
		httputil.JSONRejection(c, "Image rejected by automatic moderation", imageVerdict)
		return
	}

	p, ok := s.createPost(c, log, userID, alias, content, b.URL, verdict)
	if !ok {
		s.uploader.Remove(ctx, b)
		return
	}

	c.JSON(http.StatusCreated, createResponse{
		Message:          "Post created successfully",
		PostID:           p.ID,
		ModerationStatus: ModerationStatusApproved,
	})
}

func (s *Server) authorAlias(c *gin.Context, log *zap.Logger, userID string) (string, bool) {
	p, err := s.profiles.GetProfile(c.Request.Context(), userID)
	if errors.Is(err, profile.ErrNotFound) {
		httputil.JSONError(c, http.StatusNotFound, "User not found")
		return "", false
	} else if err != nil {
		log.Error("Failed to get profile", zap.Error(err))
		httputil.InternalError(c, "Failed to create post")
		return "", false
	}
	return p.Alias, true
}

func (s *Server) createPost(c *gin.Context, log *zap.Logger, userID, alias, content, imageURL string, verdict *moderation.Verdict) (*Post, bool) {
	id, err := model.GenerateID()
	if err != nil {
		log.Error("Failed to generate post id", zap.Error(err))
		httputil.InternalError(c, "Failed to create post")
		return nil, false
	}

	p := &Post{
		ID:                  id,
		UserID:              userID,
		Alias:               alias,
		Content:             content,
		ImageURL:            imageURL,
		ModerationPassed:    verdict.IsSafe,
		ModerationFlaggedBy: verdict.Clone().FlaggedBy,
		CreatedAt:           time.Now(),
	}
	if err := s.store.CreatePost(c.Request.Context(), p); err != nil {
		log.Error("Failed to create post", zap.Error(err))
		httputil.InternalError(c, "Failed to create post")
		return nil, false
	}

	log.Info("Post created", zap.String("post_id", p.ID))
	return p, true
}

type listResponse struct {
	Posts    []PostResponse `json:"posts"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	HasMore  bool           `json:"has_more"`
}

func (s *Server) ListPosts(c *gin.Context) {
	ctx := c.Request.Context()

	opts, ok := query.ParsePage(c.Query("page"), c.Query("page_size"))
	if !ok {
		httputil.JSONError(c, http.StatusBadRequest, "page must be at least 1 and page_size between 1 and 100")
		return
	}
	opts = append(opts, query.WithDescending())
	applied := query.ApplyOptions(opts...)

	posts, total, err := s.store.ListPosts(ctx, opts...)
	if err != nil {
		s.log.Error("Failed to list posts", zap.Error(err))
		httputil.InternalError(c, "Failed to get feed")
		return
	}

	resp := listResponse{
		Posts:    make([]PostResponse, 0, len(posts)),
		Total:    total,
		Page:     applied.Page,
		PageSize: applied.PageSize,
		HasMore:  applied.HasMore(total),
	}
	for _, p := range posts {
		resp.Posts = append(resp.Posts, ToResponse(p))
	}
	s.fillUserLiked(c, resp.Posts)

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetPost(c *gin.Context) {
	p, err := GetLivePost(c.Request.Context(), s.store, c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		httputil.JSONError(c, http.StatusNotFound, "Post not found")
		return
	} else if err != nil {
		s.log.Error("Failed to get post", zap.String("post_id", c.Param("id")), zap.Error(err))
		httputil.InternalError(c, "Failed to get post")
		return
	}

	resp := []PostResponse{ToResponse(p)}
	s.fillUserLiked(c, resp)

	c.JSON(http.StatusOK, resp[0])
}

// fillUserLiked sets UserLiked on posts when the caller is authenticated. A
// failed lookup leaves them unset.
func (s *Server) fillUserLiked(c *gin.Context, posts []PostResponse) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok || s.likes == nil || len(posts) == 0 {
		return
	}

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.PostID
	}

	liked, err := s.likes.LikedPosts(c.Request.Context(), claims.UserID(), ids)
	if err != nil {
		s.log.Warn("Failed to get liked posts", zap.String("user_id", claims.UserID()), zap.Error(err))
		return
	}

	for i := range posts {
		userLiked := liked[posts[i].PostID]
		posts[i].UserLiked = &userLiked
	}
}

func (s *Server) DeletePost(c *gin.Context) {
	ctx := c.Request.Context()
	userID := auth.MustClaims(c).UserID()
	postID := c.Param("id")
	log := s.log.With(zap.String("user_id", userID), zap.String("post_id", postID))

	p, err := GetLivePost(ctx, s.store, postID)
	if errors.Is(err, ErrNotFound) {
		httputil.JSONError(c, http.StatusNotFound, "Post not found")
		return
	} else if err != nil {
		log.Error("Failed to get post", zap.Error(err))
		httputil.InternalError(c, "Failed to delete post")
		return
	}

	if p.UserID != userID {
		httputil.JSONError(c, http.StatusForbidden, "You are not allowed to delete this post")
		return
	}

	if err := s.store.SoftDelete(ctx, postID); errors.Is(err, ErrNotFound) {
		httputil.JSONError(c, http.StatusNotFound, "Post not found")
		return
	} else if err != nil {
		log.Error("Failed to delete post", zap.Error(err))
		httputil.InternalError(c, "Failed to delete post")
		return
	}

	log.Info("Post deleted")
	c.JSON(http.StatusOK, gin.H{
		"message": "Post deleted successfully",
		"post_id": postID,
	})
}
