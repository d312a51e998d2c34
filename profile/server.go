package profile

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edel-social/edel-server/auth"
	"github.com/edel-social/edel-server/blob"
	"github.com/edel-social/edel-server/httputil"
	"github.com/edel-social/edel-server/image"
	"github.com/edel-social/edel-server/model"
	"github.com/edel-social/edel-server/moderation"
	"github.com/edel-social/edel-server/s3"
)

// AdminChecker reports whether a user has admin rights.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// PostCounter counts the live posts of a user.
type PostCounter interface {
	CountByUser(ctx context.Context, userID string) (int, error)
}

type Server struct {
	log       *zap.Logger
	store     Store
	admins    AdminChecker
	posts     PostCounter
	moderator moderation.Service
	uploader  *blob.Uploader
	issuer    *auth.Issuer
}

func NewServer(
	log *zap.Logger,
	store Store,
	admins AdminChecker,
	posts PostCounter,
	moderator moderation.Service,
	uploader *blob.Uploader,
	issuer *auth.Issuer,
) *Server {
	return &Server{
		log:       log,
		store:     store,
		admins:    admins,
		posts:     posts,
		moderator: moderator,
		uploader:  uploader,
		issuer:    issuer,
	}
}

func (s *Server) RegisterRoutes(r gin.IRouter) {
	requireAuth := auth.RequireAuth(s.issuer)

	g := r.Group("/profile")
	g.GET("/me", requireAuth, s.GetMyProfile)
	g.PUT("/me", requireAuth, s.UpdateMyProfile)
	g.POST("/me/image", requireAuth, s.UploadMyImage)
	g.GET("/:user_id", s.GetProfile)
}

type profileResponse struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email,omitempty"`
	Alias        string    `json:"alias"`
	ProfileImage *string   `json:"profile_image"`
	IsAdmin      bool      `json:"is_admin"`
	PostsCount   int       `json:"posts_count"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *Server) GetMyProfile(c *gin.Context) {
	claims := auth.MustClaims(c)
	s.writeProfile(c, claims.UserID(), claims.Email)
}

func (s *Server) GetProfile(c *gin.Context) {
	s.writeProfile(c, c.Param("user_id"), "")
}

func (s *Server) writeProfile(c *gin.Context, userID, email string) {
	ctx := c.Request.Context()
	log := s.log.With(zap.String("user_id", userID))

	p, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		httputil.JSONError(c, http.StatusNotFound, "User not found")
		return
	} else if err != nil {
		log.Error("Failed to get profile", zap.Error(err))
		httputil.InternalError(c, "Failed to get profile")
		return
	}

	isAdmin, err := s.admins.IsAdmin(ctx, userID)
	if err != nil {
		log.Error("Failed to get admin status", zap.Error(err))
		httputil.InternalError(c, "Failed to get profile")
		return
	}

	// The count is decorative, a failure degrades to zero.
	postsCount, err := s.posts.CountByUser(ctx, userID)
	if err != nil {
		log.Warn("Failed to count posts", zap.Error(err))
		postsCount = 0
	}

	resp := profileResponse{
		UserID:     p.UserID,
		Email:      email,
		Alias:      p.Alias,
		IsAdmin:    isAdmin,
		PostsCount: postsCount,
		CreatedAt:  p.CreatedAt,
	}
	if p.ProfileImage != "" {
		resp.ProfileImage = &p.ProfileImage
	}

	c.JSON(http.StatusOK, resp)
}

type updateRequest struct {
	Alias        *string `json:"alias"`
	ProfileImage *string `json:"profile_image"`
}

type updateResponse struct {
	Message       string   `json:"message"`
	UserID        string   `json:"user_id"`
	UpdatedFields []string `json:"updated_fields"`
}

func (s *Server) UpdateMyProfile(c *gin.Context) {
	ctx := c.Request.Context()
	userID := auth.MustClaims(c).UserID()
	log := s.log.With(zap.String("user_id", userID))

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.JSONBindError(c, "Invalid request body", err)
		return
	}

	update := &Update{
		Alias:        req.Alias,
		ProfileImage: req.ProfileImage,
	}
	if update.IsEmpty() {
		httputil.JSONError(c, http.StatusBadRequest, "At least one field must be provided")
		return
	}

	if update.Alias != nil {
		alias := model.NormalizeText(*update.Alias)
		if err := ValidateAlias(alias); err != nil {
			httputil.JSONError(c, http.StatusBadRequest, "Alias must be 3 to 20 letters, digits, hyphens or underscores")
			return
		}
		update.Alias = &alias

		verdict := s.moderator.ModerateText(ctx, alias)
		if !verdict.IsSafe {
			log.Info("Alias rejected by moderation", zap.Strings("flagged_by", verdict.FlaggedBy))
			httputil.JSONRejection(c, "Alias rejected by automatic moderation", verdict)
			return
		}
	}

	if update.ProfileImage != nil && *update.ProfileImage != "" && !httputil.IsHTTPURL(*update.ProfileImage) {
		httputil.JSONError(c, http.StatusBadRequest, "profile_image must be an http(s) URL")
		return
	}

	if _, err := s.store.UpdateProfile(ctx, userID, update); errors.Is(err, ErrNotFound) {
		httputil.JSONError(c, http.StatusNotFound, "User not found")
		return
	} else if err != nil {
		log.Error("Failed to update profile", zap.Error(err))
		httputil.InternalError(c, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, updateResponse{
		Message:       "Profile updated successfully",
		UserID:        userID,
		UpdatedFields: update.Fields(),
	})
}

type imageResponse struct {
	Message      string `json:"message"`
	UserID       string `json:"user_id"`
	ProfileImage string `json:"profile_image"`
}

func (s *Server) UploadMyImage(c *gin.Context) {
	ctx := c.Request.Context()
	userID := auth.MustClaims(c).UserID()
	log := s.log.With(zap.String("user_id", userID))

	current, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		httputil.JSONError(c, http.StatusNotFound, "User not found")
		return
	} else if err != nil {
		log.Error("Failed to get profile", zap.Error(err))
		httputil.InternalError(c, "Failed to upload profile image")
		return
	}

	data, err := httputil.ReadImage(c, "image", httputil.MaxImageSize)
	if httputil.IsUploadError(err) {
		httputil.JSONError(c, http.StatusBadRequest, err.Error())
		return
	} else if err != nil {
		log.Warn("Failed to read upload", zap.Error(err))
		httputil.JSONError(c, http.StatusBadRequest, "Failed to read image")
		return
	}

	imageID, err := model.GenerateID()
	if err != nil {
		log.Error("Failed to generate image id", zap.Error(err))
		httputil.InternalError(c, "Failed to upload profile image")
		return
	}

	b, verdict, err := s.uploader.UploadImage(ctx, userID, s3.ProfileImageKey(userID, imageID), data)
	if errors.Is(err, image.ErrUnsupportedFormat) || errors.Is(err, image.ErrEmpty) {
		httputil.JSONError(c, http.StatusBadRequest, err.Error())
		return
	} else if err != nil {
		log.Error("Failed to upload profile image", zap.Error(err))
		httputil.InternalError(c, "Failed to upload profile image")
		return
	}
	if !verdict.IsSafe {
		httputil.JSONRejection(c, "Image rejected by automatic moderation", verdict)
		return
	}

	if _, err := s.store.UpdateProfile(ctx, userID, &Update{ProfileImage: &b.URL}); err != nil {
		log.Error("Failed to set profile image", zap.Error(err))
		s.uploader.Remove(ctx, b)
		httputil.InternalError(c, "Failed to upload profile image")
		return
	}

	if current.ProfileImage != "" && current.ProfileImage != b.URL {
		s.uploader.RemoveByURL(ctx, current.ProfileImage)
	}

	c.JSON(http.StatusOK, imageResponse{
		Message:      "Profile image updated successfully",
		UserID:       userID,
		ProfileImage: b.URL,
	})
}
