package blob

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edel-social/edel-server/httputil"
)

type Server struct {
	log   *zap.Logger
	store Store
}

func NewServer(log *zap.Logger, store Store) *Server {
	return &Server{
		log:   log,
		store: store,
	}
}

func (s *Server) RegisterRoutes(r gin.IRouter) {
	r.GET("/media/:id", s.GetInfo)
}

type blobResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	BlurHash  string    `json:"blur_hash"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) GetInfo(c *gin.Context) {
	b, err := s.store.GetBlob(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		httputil.JSONError(c, http.StatusNotFound, "Media not found")
		return
	} else if err != nil {
		s.log.Error("Failed to get blob", zap.String("blob_id", c.Param("id")), zap.Error(err))
		httputil.InternalError(c, "Failed to retrieve media")
		return
	}

	c.JSON(http.StatusOK, blobResponse{
		ID:        b.ID,
		UserID:    b.UserID,
		Type:      b.Type.String(),
		URL:       b.URL,
		Size:      b.Size,
		Width:     b.Width,
		Height:    b.Height,
		BlurHash:  b.BlurHash,
		CreatedAt: b.CreatedAt,
	})
}
