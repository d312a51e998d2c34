package push

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edel-social/edel-server/auth"
	"github.com/edel-social/edel-server/httputil"
)

type Server struct {
	log    *zap.Logger
	tokens TokenStore
	issuer *auth.Issuer
}

func NewServer(log *zap.Logger, tokens TokenStore, issuer *auth.Issuer) *Server {
	return &Server{
		log:    log,
		tokens: tokens,
		issuer: issuer,
	}
}

func (s *Server) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/notifications/token", auth.RequireAuth(s.issuer))
	g.POST("", s.AddToken)
	g.DELETE("", s.DeleteToken)
}

type addTokenRequest struct {
	Token        string `json:"token" binding:"required"`
	AppInstallID string `json:"app_install_id"`
	Platform     string `json:"platform"`
}

type deleteTokenRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform"`
}

func (s *Server) AddToken(c *gin.Context) {
	userID := auth.MustClaims(c).UserID()

	var req addTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.JSONBindError(c, "Invalid request body", err)
		return
	}

	tokenType, err := ParseTokenType(req.Platform)
	if err != nil {
		httputil.JSONError(c, http.StatusBadRequest, "platform must be android or ios")
		return
	}

	// Clients that don't report an install id get a single token slot.
	appInstallID := strings.TrimSpace(req.AppInstallID)
	if appInstallID == "" {
		appInstallID = "default"
	}

	if err := s.tokens.AddToken(c.Request.Context(), userID, appInstallID, tokenType, req.Token); err != nil {
		s.log.Warn("Failed to add push token", zap.String("user_id", userID), zap.Error(err))
		httputil.InternalError(c, "Failed to register token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "FCM token registered successfully",
		"user_id": userID,
	})
}

func (s *Server) DeleteToken(c *gin.Context) {
	ctx := c.Request.Context()
	userID := auth.MustClaims(c).UserID()

	var req deleteTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.JSONBindError(c, "Invalid request body", err)
		return
	}

	tokenType, err := ParseTokenType(req.Platform)
	if err != nil {
		httputil.JSONError(c, http.StatusBadRequest, "platform must be android or ios")
		return
	}

	log := s.log.With(zap.String("user_id", userID))

	existing, err := s.tokens.GetTokens(ctx, userID)
	if err != nil {
		log.Warn("Failed to get push tokens", zap.Error(err))
		httputil.InternalError(c, "Failed to delete token")
		return
	}

	exists := slices.ContainsFunc(existing, func(token Token) bool {
		return token.Type == tokenType && token.Token == req.Token
	})
	if !exists {
		log.Info("Did not delete push token (not found)")
		c.JSON(http.StatusOK, gin.H{"message": "FCM token removed successfully"})
		return
	}

	if err = s.tokens.DeleteToken(ctx, tokenType, req.Token); err != nil {
		log.Warn("Failed to delete push token", zap.Error(err))
		httputil.InternalError(c, "Failed to delete token")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "FCM token removed successfully"})
}
