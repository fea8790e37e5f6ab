package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"partner-portal.backend/pkg/jwt"
	"partner-portal.backend/pkg/logger"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// PartnerIDKey is the context key for the partner id
	PartnerIDKey = "partnerId"
	// PartnerEmailKey is the context key for the partner email
	PartnerEmailKey = "partnerEmail"
	// AuthProviderKey is the context key for the social login provider
	AuthProviderKey = "authProvider"
)

// AuthMiddleware validates the partner's bearer token
func AuthMiddleware(jwtService *jwt.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			logger.Warn(ctx, "Authorization header is missing", zap.String("path", c.Request.URL.Path))
			abortUnauthorized(c, "AUTH_REQUIRED", "Authorization header is required")
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, BearerPrefix)
		if !ok || strings.TrimSpace(tokenString) == "" {
			logger.Warn(ctx, "Invalid authorization format", zap.String("path", c.Request.URL.Path))
			abortUnauthorized(c, "AUTH_REQUIRED", "Invalid authorization format. Use: Bearer <token>")
			return
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			logger.Warn(ctx, "Token rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
			if errors.Is(err, jwt.ErrExpiredToken) {
				abortUnauthorized(c, "TOKEN_EXPIRED", "Token has expired")
				return
			}
			abortUnauthorized(c, "TOKEN_INVALID", "Invalid token")
			return
		}

		c.Set(PartnerIDKey, claims.PartnerID)
		c.Set(PartnerEmailKey, claims.Email)
		c.Set(AuthProviderKey, claims.AuthProvider)

		c.Request = c.Request.WithContext(context.WithValue(ctx, logger.PartnerIDKey, claims.PartnerID.String()))
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
		"code":  code,
	})
}

// GetPartnerID gets the partner ID from context
func GetPartnerID(c *gin.Context) (uuid.UUID, bool) {
	partnerID, exists := c.Get(PartnerIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := partnerID.(uuid.UUID)
	return id, ok
}

// GetPartnerEmail gets the partner email from context
func GetPartnerEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(PartnerEmailKey)
	if !exists {
		return "", false
	}
	s, ok := email.(string)
	return s, ok
}
