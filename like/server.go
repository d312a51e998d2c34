package like

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edel-social/edel-server/auth"
	"github.com/edel-social/edel-server/event"
	"github.com/edel-social/edel-server/httputil"
	"github.com/edel-social/edel-server/post"
	"github.com/edel-social/edel-server/profile"
)

type Server struct {
	log      *zap.Logger
	store    Store
	posts    post.Store
	profiles profile.Store
	bus      *event.ActivityBus
	issuer   *auth.Issuer
}

func NewServer(
	log *zap.Logger,
	store Store,
	posts post.Store,
	profiles profile.Store,
	bus *event.ActivityBus,
	issuer *auth.Issuer,
) *Server {
	return &Server{
		log:      log,
		store:    store,
		posts:    posts,
		profiles: profiles,
		bus:      bus,
		issuer:   issuer,
	}
}

func (s *Server) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/likes/posts", auth.RequireAuth(s.issuer))
	g.POST("/:post_id", s.Like)
	g.DELETE("/:post_id", s.Unlike)
	g.GET("/:post_id/status", s.Status)
}

type likeResponse struct {
	Message    string `json:"message"`
	PostID     string `json:"post_id"`
	LikesCount int    `json:"likes_count"`
	UserLiked  bool   `json:"user_liked"`
}

type statusResponse struct {
	PostID     string `json:"post_id"`
	UserLiked  bool   `json:"user_liked"`
	LikesCount int    `json:"likes_count"`
}

func (s *Server) Like(c *gin.Context) {
	ctx := c.Request.Context()
	claims := auth.MustClaims(c)
	userID := claims.UserID()
	postID := c.Param("post_id")
	log := s.log.With(zap.String("user_id", userID), zap.String("post_id", postID))

	p, ok := s.livePost(c, log, postID, "Failed to like post")
	if !ok {
		return
	}

	err := s.store.AddLike(ctx, postID, userID)
	if errors.Is(err, ErrExists) {
		c.JSON(http.StatusOK, likeResponse{
			Message:    "You already liked this post",
			PostID:     postID,
			LikesCount: p.LikesCount,
			UserLiked:  true,
		})
		return
	} else if err != nil {
		log.Error("Failed to add like", zap.Error(err))
		httputil.InternalError(c, "Failed to like post")
		return
	}

	updated, err := s.posts.AdjustCounts(ctx, postID, 1, 0)
	if err != nil {
		log.Error("Failed to increment likes count", zap.Error(err))
		httputil.InternalError(c, "Failed to like post")
		return
	}

	if p.UserID != userID {
		_ = s.bus.OnEvent(p.UserID, &event.ActivityEvent{
			Type:      event.ActivityLike,
			PostID:    postID,
			ActorID:   userID,
			Alias:     s.alias(c, log, claims),
			Timestamp: time.Now(),
		})
	}

	c.JSON(http.StatusOK, likeResponse{
		Message:    "Like added successfully",
		PostID:     postID,
		LikesCount: updated.LikesCount,
		UserLiked:  true,
	})
}

func (s *Server) Unlike(c *gin.Context) {
	ctx := c.Request.Context()
	userID := auth.MustClaims(c).UserID()
	postID := c.Param("post_id")
	log := s.log.With(zap.String("user_id", userID), zap.String("post_id", postID))

	p, ok := s.livePost(c, log, postID, "Failed to unlike post")
	if !ok {
		return
	}

	err := s.store.RemoveLike(ctx, postID, userID)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusOK, likeResponse{
			Message:    "You have not liked this post",
			PostID:     postID,
			LikesCount: p.LikesCount,
			UserLiked:  false,
		})
		return
	} else if err != nil {
		log.Error("Failed to remove like", zap.Error(err))
		httputil.InternalError(c, "Failed to unlike post")
		return
	}

	updated, err := s.posts.AdjustCounts(ctx, postID, -1, 0)
	if err != nil {
		log.Error("Failed to decrement likes count", zap.Error(err))
		httputil.InternalError(c, "Failed to unlike post")
		return
	}

	c.JSON(http.StatusOK, likeResponse{
		Message:    "Like removed successfully",
		PostID:     postID,
		LikesCount: updated.LikesCount,
		UserLiked:  false,
	})
}

func (s *Server) Status(c *gin.Context) {
	userID := auth.MustClaims(c).UserID()
	postID := c.Param("post_id")
	log := s.log.With(zap.String("user_id", userID), zap.String("post_id", postID))

	p, ok := s.livePost(c, log, postID, "Failed to get like status")
	if !ok {
		return
	}

	liked, err := s.store.HasLiked(c.Request.Context(), postID, userID)
	if err != nil {
		log.Error("Failed to get like status", zap.Error(err))
		httputil.InternalError(c, "Failed to get like status")
		return
	}

	c.JSON(http.StatusOK, statusResponse{
		PostID:     postID,
		UserLiked:  liked,
		LikesCount: p.LikesCount,
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

// alias returns the caller's current alias, falling back to the one in their
// token.
func (s *Server) alias(c *gin.Context, log *zap.Logger, claims *auth.Claims) string {
	p, err := s.profiles.GetProfile(c.Request.Context(), claims.UserID())
	if err != nil {
		log.Debug("Falling back to token alias", zap.Error(err))
		return claims.Alias
	}
	return p.Alias
}
