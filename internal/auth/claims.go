// Package auth reads identity from the portal's bearer token. The
// signature is never checked here; the backend does that on every call.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nhle/jobportal/internal/model"
)

var (
	ErrNoToken       = errors.New("no token")
	ErrInvalidFormat = errors.New("invalid token format")
)

// Claims defines the token content the client cares about.
type Claims struct {
	UserID   model.ID        `json:"userId"`
	Email    string          `json:"email"`
	Name     string          `json:"name"`
	Role     string          `json:"role"`
	RoleType string          `json:"roleType"`
	Roles    json.RawMessage `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the signed-in user as derived from Claims.
type Identity struct {
	UserID    model.ID
	Email     string
	Name      string
	Role      model.Role
	ExpiresAt time.Time
}

// Expired reports whether the token's exp claim is at or before now.
// Tokens without exp never expire client-side.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// IsRecruiter reports whether the recruiter views should be offered.
func (i Identity) IsRecruiter() bool { return i.Role == model.RoleRecruiter }

// Parse decodes token without verifying its signature.
func Parse(token string) (Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return Identity{}, ErrNoToken
	}

	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	id := Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
		Role:   model.ParseRole(firstNonEmpty(claims.Role, claims.RoleType, firstRole(claims.Roles))),
	}
	if id.UserID == "" {
		id.UserID = model.ID(claims.Subject)
	}
	if id.Email == "" && strings.Contains(claims.Subject, "@") {
		id.Email = claims.Subject
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

// firstRole accepts "roles": "X" or "roles": ["X", ...].
func firstRole(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var one string
	if json.Unmarshal(raw, &one) == nil {
		return one
	}
	var many []string
	if json.Unmarshal(raw, &many) == nil {
		for _, r := range many {
			if strings.Contains(strings.ToUpper(r), string(model.RoleRecruiter)) {
				return r
			}
		}
		if len(many) > 0 {
			return many[0]
		}
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
