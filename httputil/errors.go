// Package httputil holds the JSON error conventions shared by every route.
package httputil

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// JSONError aborts the request with a {"detail": message} body.
func JSONError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"detail": message,
	})
}

// JSONBindError aborts with 400, listing the fields that failed validation
// when the binding error carries them.
func JSONBindError(c *gin.Context, message string, bindErr error) {
	body := gin.H{
		"detail": message,
	}

	var verrs validator.ValidationErrors
	if errors.As(bindErr, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		body["fields"] = fields
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}

// InternalError aborts with a generic 500.
func InternalError(c *gin.Context, message string) {
	JSONError(c, http.StatusInternalServerError, message)
}
