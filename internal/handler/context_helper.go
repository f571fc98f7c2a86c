package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/students-gateway/internal/middleware"
	"github.com/noah-isme/students-gateway/internal/models"
	appErrors "github.com/noah-isme/students-gateway/pkg/errors"
	"github.com/noah-isme/students-gateway/pkg/response"
)

// identityFromContext returns the authenticated caller, answering 401 when there is none.
func identityFromContext(c *gin.Context) (models.Identity, bool) {
	value, exists := c.Get(middleware.ContextUserKey)
	if exists {
		if identity, ok := value.(models.Identity); ok && identity.Authenticated {
			return identity, true
		}
	}
	response.Error(c, appErrors.ErrUnauthorized)
	return models.Identity{}, false
}
