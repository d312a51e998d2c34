// Package server assembles the HTTP API from the routes of every module.
package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/edel-social/edel-server/httputil"
	"github.com/edel-social/edel-server/s3"
)

const (
	Name    = "Edel-SocialApp API"
	Version = "1.0.0"
)

// Routes is implemented by every module server.
type Routes interface {
	RegisterRoutes(r gin.IRouter)
}

type Option func(*options)

type options struct {
	debug   bool
	objects s3.Store
}

// WithDebug puts gin in debug mode.
func WithDebug(debug bool) Option {
	return func(o *options) {
		o.debug = debug
	}
}

// WithObjects serves the objects of store under /objects. Used when uploads
// are kept in memory rather than in a public bucket.
func WithObjects(store s3.Store) Option {
	return func(o *options) {
		o.objects = store
	}
}

func New(log *zap.Logger, routes []Routes, opts ...Option) *gin.Engine {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		recoveryMiddleware(log),
		loggingMiddleware(log),
		metricsMiddleware(),
		corsMiddleware(),
	)

	r.GET("/", info)
	r.GET("/health", health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if o.objects != nil {
		r.GET("/objects/*key", serveObject(log, o.objects))
	}

	for _, route := range routes {
		route.RegisterRoutes(r)
	}

	r.NoRoute(func(c *gin.Context) {
		httputil.JSONError(c, http.StatusNotFound, "Not found")
	})

	return r
}

func info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": Name,
		"version": Version,
		"status":  "running",
	})
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "edel-server",
	})
}

func serveObject(log *zap.Logger, objects s3.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")

		data, err := objects.Download(c.Request.Context(), key)
		if errors.Is(err, s3.ErrNotFound) {
			httputil.JSONError(c, http.StatusNotFound, "Object not found")
			return
		} else if err != nil {
			log.Warn("Failed to download object", zap.String("key", key), zap.Error(err))
			httputil.InternalError(c, "Failed to get object")
			return
		}

		c.Data(http.StatusOK, http.DetectContentType(data), data)
	}
}
