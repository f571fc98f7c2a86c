package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/students-gateway/internal/models"
	appErrors "github.com/noah-isme/students-gateway/pkg/errors"
)

// IdentityConfig defines how bearer tokens are verified.
type IdentityConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// IdentityService verifies bearer tokens issued by the identity provider. Sign-in and
// session lifecycle stay with the provider.
type IdentityService struct {
	config IdentityConfig
}

// NewIdentityService constructs an IdentityService.
func NewIdentityService(config IdentityConfig) *IdentityService {
	return &IdentityService{config: config}
}

// ValidateToken parses and verifies a token and resolves the caller identity.
func (s *IdentityService) ValidateToken(tokenString string) (*models.Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	if s.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.config.Audience))
	}

	claims := &models.IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired token")
	}

	identity := claims.Identity()
	if !identity.Authenticated {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token carries no user identity")
	}
	return &identity, nil
}

// IssueToken signs a short-lived token for identity, used by local tooling and tests.
func (s *IdentityService) IssueToken(identity models.Identity, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := models.IdentityClaims{
		UID:   identity.ID,
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if s.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.config.Audience}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
