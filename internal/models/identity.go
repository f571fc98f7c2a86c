package models

import "github.com/golang-jwt/jwt/v5"

// Identity is the authenticated caller as seen by the engine.
type Identity struct {
	ID            string `json:"id"`
	Email         string `json:"email,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

// IdentityClaims is the token payload issued by the identity provider.
// Providers disagree on the identity field, so uid, user_id and id are all accepted.
type IdentityClaims struct {
	UID    string `json:"uid,omitempty"`
	UserID string `json:"user_id,omitempty"`
	ID     string `json:"id,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity resolves the caller identity, preferring uid, then user_id, then id, then the subject.
func (c *IdentityClaims) Identity() Identity {
	id := firstNonEmpty(c.UID, c.UserID, c.ID, c.Subject)
	return Identity{ID: id, Email: c.Email, Authenticated: id != ""}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
