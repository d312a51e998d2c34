package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edel-social/edel-server/moderation"
)

// Rejection is the detail of a 400 caused by a moderation verdict.
type Rejection struct {
	Message   string   `json:"message"`
	Reason    string   `json:"reason"`
	FlaggedBy []string `json:"flagged_by"`
}

// JSONRejection aborts with 400 and the verdict's reason and flaggers.
func JSONRejection(c *gin.Context, message string, verdict *moderation.Verdict) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"detail": Rejection{
			Message:   message,
			Reason:    verdict.Reason,
			FlaggedBy: verdict.FlaggedBy,
		},
	})
}
