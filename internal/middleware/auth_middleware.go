package middleware

import (
	"context"
	stdErrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gausamvardhan/storefront-backend/internal/app/model"
	"github.com/gausamvardhan/storefront-backend/internal/errors"
	"github.com/gausamvardhan/storefront-backend/pkg/util"
)

// Context keys for authenticated requests
const (
	UserIDKey      = "user_id"
	UserEmailKey   = "user_email"
	UserRoleKey    = "user_role"
	TokenKey       = "access_token"
	TokenExpiryKey = "access_token_expiry"
)

// TokenChecker reports whether an access token was revoked at logout.
type TokenChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type AuthMiddleware struct {
	jwtSecret string
	checker   TokenChecker
}

// NewAuthMiddleware builds the JWT middleware. checker may be nil when no
// blacklist is configured.
func NewAuthMiddleware(jwtSecret string, checker TokenChecker) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
		checker:   checker,
	}
}

// bearerToken reads "Authorization: Bearer <token>", falling back to the
// token query parameter used by websocket clients.
func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", false
		}
		return parts[1], true
	}
	token := c.Query("token")
	return token, token != ""
}

func (m *AuthMiddleware) authenticate(c *gin.Context) (*util.Claims, string, error) {
	token, ok := bearerToken(c)
	if !ok {
		return nil, "", util.ErrInvalidToken
	}
	claims, err := util.ValidateToken(token, m.jwtSecret)
	if err != nil {
		return nil, "", err
	}
	if claims.TokenType != util.TokenTypeAccess {
		return nil, "", util.ErrInvalidToken
	}
	return claims, token, nil
}

var errTokenRevoked = stdErrors.New("token revoked")

func (m *AuthMiddleware) checkRevoked(c *gin.Context, token string) error {
	if m.checker == nil {
		return nil
	}
	revoked, err := m.checker.IsRevoked(c.Request.Context(), token)
	if err != nil {
		// blacklist outage should not lock every user out
		GetLoggerFromContext(c).Warn("Token blacklist unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	if revoked {
		return errTokenRevoked
	}
	return nil
}

func setIdentity(c *gin.Context, claims *util.Claims, token string) {
	c.Set(UserIDKey, claims.UserID)
	c.Set(UserEmailKey, claims.Email)
	c.Set(UserRoleKey, model.UserRole(claims.Role))
	c.Set(TokenKey, token)
	if claims.ExpiresAt != nil {
		c.Set(TokenExpiryKey, claims.ExpiresAt.Time)
	}
}

// Authenticate requires a valid, unrevoked access token.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		if c.GetHeader("Authorization") == "" && c.Query("token") == "" {
			log.Warn("Missing authorization header", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.Unauthorized(c, "")
			c.Abort()
			return
		}

		claims, token, err := m.authenticate(c)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			if stdErrors.Is(err, util.ErrExpiredToken) {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenExpired, "Your session has expired")
			} else {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Invalid authentication token")
			}
			c.Abort()
			return
		}

		if err := m.checkRevoked(c, token); err != nil {
			log.Warn("Revoked token used", map[string]interface{}{
				"user_id": claims.UserID,
			})
			errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenRevoked, "You have been signed out")
			c.Abort()
			return
		}

		setIdentity(c, claims, token)
		log.Debug("User authenticated", map[string]interface{}{
			"user_id": claims.UserID,
			"role":    claims.Role,
		})
		c.Next()
	}
}

// OptionalAuthenticate sets the identity when a usable token is present and
// otherwise lets the request through as a guest.
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, token, err := m.authenticate(c)
		if err == nil && m.checkRevoked(c, token) == nil {
			setIdentity(c, claims, token)
		}
		c.Next()
	}
}

// RequireRole allows only the listed roles through.
func (m *AuthMiddleware) RequireRole(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		role, exists := GetUserRole(c)
		if !exists {
			errors.Forbidden(c, "")
			c.Abort()
			return
		}

		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		userID, _ := GetUserID(c)
		log.Warn("Insufficient permissions", map[string]interface{}{
			"user_id":        userID,
			"user_role":      role,
			"required_roles": roles,
			"path":           c.Request.URL.Path,
		})
		errors.RespondWithError(c, http.StatusForbidden, errors.AuthzAdminOnly, "This action is limited to administrators")
		c.Abort()
	}
}

func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

func GetUserEmail(c *gin.Context) (string, bool) {
	return getString(c, UserEmailKey)
}

func GetUserRole(c *gin.Context) (model.UserRole, bool) {
	role, exists := c.Get(UserRoleKey)
	if !exists {
		return "", false
	}
	r, ok := role.(model.UserRole)
	return r, ok
}

// GetAccessToken returns the raw token and its expiry for the request.
func GetAccessToken(c *gin.Context) (string, time.Time, bool) {
	token, ok := getString(c, TokenKey)
	if !ok {
		return "", time.Time{}, false
	}
	expiry, _ := c.Get(TokenExpiryKey)
	exp, _ := expiry.(time.Time)
	return token, exp, true
}

func getString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
