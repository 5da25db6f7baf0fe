package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/enrollment/internal/app/models"
	"github.com/yigit/enrollment/internal/pkg/apperrors"
	"github.com/yigit/enrollment/internal/pkg/auth"
)

// Context keys set by the auth middleware
const (
	ContextKeyUserID   = "userID"
	ContextKeyRoleType = "roleType"
)

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// JWTAuth rejects requests without a valid access token
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			HandleAPIError(c, apperrors.ErrTokenInvalid)
			return
		}

		claims, err := m.authenticate(authHeader)
		if err != nil {
			HandleAPIError(c, err)
			return
		}

		setActor(c, claims)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a token is present but lets anonymous requests through.
// A present but invalid token is still rejected.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		claims, err := m.authenticate(authHeader)
		if err != nil {
			HandleAPIError(c, err)
			return
		}

		setActor(c, claims)
		c.Next()
	}
}

// RoleRequired middleware to check if user has required role
func (m *AuthMiddleware) RoleRequired(requiredRole models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, role, ok := Actor(c)
		if !ok {
			HandleAPIError(c, apperrors.ErrTokenInvalid)
			return
		}

		if role != requiredRole {
			HandleAPIError(c, apperrors.NewForbiddenError("You don't have sufficient permissions for this operation"))
			return
		}

		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(authHeader string) (*auth.Claims, error) {
	tokenString, err := auth.ExtractBearerToken(authHeader)
	if err != nil {
		return nil, err
	}
	return m.jwtService.ValidateToken(tokenString)
}

func setActor(c *gin.Context, claims *auth.Claims) {
	c.Set(ContextKeyUserID, claims.ActorID())
	c.Set(ContextKeyRoleType, claims.RoleType)
}

// Actor returns the authenticated caller, if any
func Actor(c *gin.Context) (actorID string, role models.RoleType, ok bool) {
	actorID = c.GetString(ContextKeyUserID)
	if actorID == "" {
		return "", "", false
	}
	role, _ = c.Value(ContextKeyRoleType).(models.RoleType)
	return actorID, role, true
}
