package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/khoilion/store-be/services"
)

const (
	UserContextKey = "userID"
	RoleContextKey = "role"
)

// TokenValidator verifies a bearer access token.
type TokenValidator interface {
	ValidateAccessToken(token string) (*services.Identity, error)
}

// AuthConfig controls where identity may come from. Gateway headers are only
// trusted when the service sits behind a gateway that strips them from clients.
type AuthConfig struct {
	Tokens       TokenValidator
	TrustGateway bool
}

// AuthMiddleware resolves the caller from a Bearer token, falling back to
// gateway-injected headers (and their cookies) when TrustGateway is set.
func AuthMiddleware(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role, problem := resolveIdentity(c, cfg)
		if problem != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": problem})
			return
		}

		c.Set(UserContextKey, userID)
		c.Set(RoleContextKey, role)
		c.Next()
	}
}

// resolveIdentity returns a non-empty problem when no identity could be established.
func resolveIdentity(c *gin.Context, cfg AuthConfig) (userID, role, problem string) {
	if header := c.GetHeader("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" || cfg.Tokens == nil {
			return "", "", "Invalid authorization header"
		}
		id, err := cfg.Tokens.ValidateAccessToken(strings.TrimSpace(token))
		if err != nil {
			return "", "", "Invalid or expired token"
		}
		return id.UserID, id.Role, ""
	}

	if !cfg.TrustGateway {
		return "", "", "Unauthorized"
	}

	userID = c.GetHeader("X-User-ID")
	role = c.GetHeader("X-User-Role")
	if userID == "" {
		if v, err := c.Cookie("user_id"); err == nil && v != "" {
			userID = v
		}
	}
	if role == "" {
		if v, err := c.Cookie("user_role"); err == nil && v != "" {
			role = v
		}
	}
	if userID == "" {
		return "", "", "Unauthorized: Missing User ID"
	}
	return userID, role, ""
}

// RequireRoles must run after AuthMiddleware.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetUserRole(c)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	}
}

// GetUserID extracts the user ID from the Gin context.
func GetUserID(c *gin.Context) (string, error) {
	if val, ok := c.Get(UserContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id, nil
		}
	}
	return "", errors.New("user ID not found in context")
}

func GetUserRole(c *gin.Context) string {
	return c.GetString(RoleContextKey)
}
