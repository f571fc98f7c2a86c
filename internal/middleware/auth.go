package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/students-gateway/internal/models"
	"github.com/noah-isme/students-gateway/internal/repository"
	appErrors "github.com/noah-isme/students-gateway/pkg/errors"
	"github.com/noah-isme/students-gateway/pkg/response"
)

// ContextUserKey is the gin context key storing the caller identity.
const ContextUserKey = "currentUser"

type tokenVerifier interface {
	ValidateToken(token string) (*models.Identity, error)
}

// Auth requires a valid bearer token. The resolved identity is stored under
// ContextUserKey and the raw token is carried on the request context for the
// persistence collaborator.
func Auth(verifier tokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		identity, err := verifier.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, *identity)
		c.Request = c.Request.WithContext(repository.WithBearerToken(c.Request.Context(), token))
		c.Next()
	}
}
