package account

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edel-social/edel-server/auth"
	"github.com/edel-social/edel-server/httputil"
)

// Authorizer checks admin rights against the account store rather than the
// token, so revoking admin takes effect immediately.
type Authorizer struct {
	log   *zap.Logger
	store Store
}

func NewAuthorizer(log *zap.Logger, store Store) *Authorizer {
	return &Authorizer{
		log:   log,
		store: store,
	}
}

// RequireAdmin must run after auth.RequireAuth.
func (a *Authorizer) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.MustClaims(c).UserID()

		isAdmin, err := a.store.IsAdmin(c.Request.Context(), userID)
		if err != nil {
			a.log.Warn("Failed to check admin rights", zap.String("user_id", userID), zap.Error(err))
			httputil.InternalError(c, "Failed to authorize")
			return
		}

		if !isAdmin {
			httputil.JSONError(c, http.StatusForbidden, "Admin privileges required")
			return
		}

		c.Next()
	}
}
