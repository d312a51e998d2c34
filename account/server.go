package account

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edel-social/edel-server/auth"
	"github.com/edel-social/edel-server/comment"
	"github.com/edel-social/edel-server/httputil"
	"github.com/edel-social/edel-server/like"
	"github.com/edel-social/edel-server/model"
	"github.com/edel-social/edel-server/notification"
	"github.com/edel-social/edel-server/post"
	"github.com/edel-social/edel-server/profile"
	"github.com/edel-social/edel-server/push"
)

const MinPasswordLength = 6

// UserContent is everything a user owns outside of their account and profile.
// It is removed when the account is deleted.
type UserContent struct {
	Posts         post.Store
	Comments      comment.Store
	Likes         like.Store
	Notifications notification.Store
	PushTokens    push.TokenStore
}

type Server struct {
	log      *zap.Logger
	store    Store
	profiles profile.Store
	content  UserContent
	issuer   *auth.Issuer
}

func NewServer(
	log *zap.Logger,
	store Store,
	profiles profile.Store,
	content UserContent,
	issuer *auth.Issuer,
) *Server {
	return &Server{
		log:      log,
		store:    store,
		profiles: profiles,
		content:  content,
		issuer:   issuer,
	}
}

func (s *Server) RegisterRoutes(r gin.IRouter) {
	requireAuth := auth.RequireAuth(s.issuer)

	g := r.Group("/auth")
	g.POST("/register", s.Register)
	g.POST("/login", s.Login)
	g.POST("/logout", requireAuth, s.Logout)
	g.GET("/me", requireAuth, s.Me)
	g.DELETE("/account", requireAuth, s.DeleteAccount)
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Alias    string `json:"alias" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token   string `json:"token"`
	UserID  string `json:"user_id"`
	Alias   string `json:"alias"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

type meResponse struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Alias        string    `json:"alias"`
	IsAdmin      bool      `json:"is_admin"`
	ProfileImage *string   `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Server) Register(c *gin.Context) {
	ctx := c.Request.Context()

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.JSONBindError(c, "Invalid request body", err)
		return
	}

	alias := model.NormalizeText(req.Alias)
	if err := profile.ValidateAlias(alias); err != nil {
		httputil.JSONError(c, http.StatusBadRequest, "Alias must be 3 to 20 letters, digits, hyphens or underscores")
		return
	}

	email := normalizeEmail(req.Email)
	log := s.log.With(zap.String("email", email))

	_, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		httputil.JSONError(c, http.StatusBadRequest, "Email is already registered")
		return
	} else if !errors.Is(err, ErrNotFound) {
		log.Error("Failed to look up email", zap.Error(err))
		httputil.InternalError(c, "Failed to register user")
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		httputil.InternalError(c, "Failed to register user")
		return
	}

	userID, err := model.GenerateID()
	if err != nil {
		log.Error("Failed to generate user id", zap.Error(err))
		httputil.InternalError(c, "Failed to register user")
		return
	}
	log = log.With(zap.String("user_id", userID))

	now := time.Now()
	user := &User{
		ID:           userID,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.store.CreateUser(ctx, user)
	if errors.Is(err, ErrExists) {
		// Lost a race with another registration for the same email.
		httputil.JSONError(c, http.StatusBadRequest, "Email is already registered")
		return
	} else if err != nil {
		log.Error("Failed to create user", zap.Error(err))
		httputil.InternalError(c, "Failed to register user")
		return
	}

	err = s.profiles.CreateProfile(ctx, &profile.Profile{
		UserID:    userID,
		Alias:     alias,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		log.Error("Failed to create profile", zap.Error(err))
		if err := s.store.DeleteUser(ctx, userID); err != nil {
			log.Warn("Failed to remove user without profile", zap.Error(err))
		}
		httputil.InternalError(c, "Failed to register user")
		return
	}

	token, err := s.issuer.Issue(userID, email, alias, false)
	if err != nil {
		log.Error("Failed to issue token", zap.Error(err))
		httputil.InternalError(c, "Failed to register user")
		return
	}

	log.Info("User registered")
	c.JSON(http.StatusCreated, loginResponse{
		Token:  token,
		UserID: userID,
		Alias:  alias,
		Email:  email,
	})
}

func (s *Server) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.JSONBindError(c, "Invalid request body", err)
		return
	}

	email := normalizeEmail(req.Email)
	log := s.log.With(zap.String("email", email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		httputil.JSONError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	} else if err != nil {
		log.Error("Failed to get user", zap.Error(err))
		httputil.InternalError(c, "Failed to log in")
		return
	}

	if !CheckPassword(user.PasswordHash, req.Password) {
		httputil.JSONError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	p, err := s.profiles.GetProfile(ctx, user.ID)
	if errors.Is(err, profile.ErrNotFound) {
		httputil.JSONError(c, http.StatusNotFound, "User not found")
		return
	} else if err != nil {
		log.Error("Failed to get profile", zap.String("user_id", user.ID), zap.Error(err))
		httputil.InternalError(c, "Failed to log in")
		return
	}

	token, err := s.issuer.Issue(user.ID, user.Email, p.Alias, user.IsAdmin)
	if err != nil {
		log.Error("Failed to issue token", zap.String("user_id", user.ID), zap.Error(err))
		httputil.InternalError(c, "Failed to log in")
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token:   token,
		UserID:  user.ID,
		Alias:   p.Alias,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	})
}

func (s *Server) Logout(c *gin.Context) {
	claims := auth.MustClaims(c)
	s.issuer.Revoke(claims)

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
		"user_id": claims.UserID(),
	})
}

func (s *Server) Me(c *gin.Context) {
	ctx := c.Request.Context()
	userID := auth.MustClaims(c).UserID()
	log := s.log.With(zap.String("user_id", userID))

	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		httputil.JSONError(c, http.StatusNotFound, "User not found")
		return
	} else if err != nil {
		log.Error("Failed to get user", zap.Error(err))
		httputil.InternalError(c, "Failed to get user")
		return
	}

	p, err := s.profiles.GetProfile(ctx, userID)
	if errors.Is(err, profile.ErrNotFound) {
		httputil.JSONError(c, http.StatusNotFound, "User not found")
		return
	} else if err != nil {
		log.Error("Failed to get profile", zap.Error(err))
		httputil.InternalError(c, "Failed to get user")
		return
	}

	resp := meResponse{
		UserID:    user.ID,
		Email:     user.Email,
		Alias:     p.Alias,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt,
	}
	if p.ProfileImage != "" {
		resp.ProfileImage = &p.ProfileImage
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteAccount(c *gin.Context) {
	ctx := c.Request.Context()
	claims := auth.MustClaims(c)
	userID := claims.UserID()
	log := s.log.With(zap.String("user_id", userID))

	_, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		httputil.JSONError(c, http.StatusNotFound, "User not found")
		return
	} else if err != nil {
		log.Error("Failed to get user", zap.Error(err))
		httputil.InternalError(c, "Failed to delete account")
		return
	}

	alias := claims.Alias
	if p, err := s.profiles.GetProfile(ctx, userID); err == nil {
		alias = p.Alias
	}

	postsDeleted, err := s.deleteUserData(ctx, log, userID)
	if err != nil {
		log.Error("Failed to delete account", zap.Error(err))
		httputil.InternalError(c, "Failed to delete account")
		return
	}

	s.issuer.Revoke(claims)

	log.Info("Account deleted", zap.Int("posts_deleted", postsDeleted))
	c.JSON(http.StatusOK, gin.H{
		"message":       fmt.Sprintf("Account of '%s' deleted successfully", alias),
		"user_id":       userID,
		"posts_deleted": postsDeleted,
	})
}

// deleteUserData removes the user's content first and the account last, so
// a failed deletion can be retried with the same token.
func (s *Server) deleteUserData(ctx context.Context, log *zap.Logger, userID string) (int, error) {
	postsDeleted, err := s.content.Posts.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete posts: %w", err)
	}

	commentsDeleted, err := s.content.Comments.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete comments: %w", err)
	}
	log.Debug("Deleted comments", zap.Int("count", commentsDeleted))

	if err := s.content.Likes.DeleteByUser(ctx, userID); err != nil {
		return 0, fmt.Errorf("failed to delete likes: %w", err)
	}
	if err := s.content.Notifications.DeleteByUser(ctx, userID); err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	if err := s.content.PushTokens.ClearTokens(ctx, userID); err != nil {
		return 0, fmt.Errorf("failed to clear push tokens: %w", err)
	}

	if err := s.profiles.DeleteProfile(ctx, userID); err != nil && !errors.Is(err, profile.ErrNotFound) {
		return 0, fmt.Errorf("failed to delete profile: %w", err)
	}
	if err := s.store.DeleteUser(ctx, userID); err != nil && !errors.Is(err, ErrNotFound) {
		return 0, fmt.Errorf("failed to delete user: %w", err)
	}

	return postsDeleted, nil
}
