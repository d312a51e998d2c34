package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/edel-social/edel-server/moderation"
)

type form struct {
	Email string `json:"email" binding:"required,email"`
	Alias string `json:"alias" binding:"required,min=3"`
}

func TestJSONBindError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var f form
		if err := c.ShouldBindJSON(&f); err != nil {
			JSONBindError(c, "invalid request", err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","alias":"ab"}`))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Detail string            `json:"detail"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "invalid request", body.Detail)
	require.Equal(t, "email", body.Fields["Email"])
	require.Equal(t, "min", body.Fields["Alias"])
}

func TestJSONError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		JSONError(c, http.StatusNotFound, "post not found")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"detail":"post not found"}`, w.Body.String())
}

func TestJSONRejection(t *testing.T) {
	gin.SetMode(gin.TestMode)

	verdict := moderation.NewVerdict()
	verdict.Flag(moderation.CheckerPurgoMalum, "profanity")
	verdict.Flag(moderation.CheckerOpenAI, "harassment")

	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		JSONRejection(c, "Content rejected by moderation", verdict)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Detail Rejection `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "Content rejected by moderation", body.Detail.Message)
	require.Equal(t, "profanity", body.Detail.Reason)
	require.Equal(t, []string{moderation.CheckerPurgoMalum, moderation.CheckerOpenAI}, body.Detail.FlaggedBy)
}
