package middleware

import (
	"strings"

	"novabyte-blog/helper"
	"novabyte-blog/models"
	"novabyte-blog/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	ctxPersonID = "person_id"
	ctxUsername = "username"
	ctxIsAdmin  = "is_admin"
)

// AuthMiddleware requires a valid Bearer access token and stores its claims
// on the gin context.
func AuthMiddleware(h *helper.HTTPHelper, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			h.SendUnauthorizedError(c, "Authorization header required", h.EmptyJsonMap())
			c.Abort()
			return
		}
		if !authenticate(c, h, secret) {
			return
		}
		c.Next()
	}
}

// OptionalAuth lets anonymous requests through; a token that is present must
// still be valid.
func OptionalAuth(h *helper.HTTPHelper, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" && !authenticate(c, h, secret) {
			return
		}
		c.Next()
	}
}

// authenticate writes the response and aborts when it returns false.
func authenticate(c *gin.Context, h *helper.HTTPHelper, secret []byte) bool {
	authHeader := c.GetHeader("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		h.SendUnauthorizedError(c, "Bearer token required", h.EmptyJsonMap())
		c.Abort()
		return false
	}

	claims, err := services.ParseAccessToken(secret, tokenString)
	if err != nil {
		h.SendErrorFromErr(c, err)
		c.Abort()
		return false
	}

	c.Set(ctxPersonID, claims.PersonID)
	c.Set(ctxUsername, claims.Username)
	c.Set(ctxIsAdmin, claims.IsAdmin)

	log := zerolog.Ctx(c.Request.Context()).With().Str("person_id", claims.PersonID).Logger()
	c.Request = c.Request.WithContext(log.WithContext(c.Request.Context()))
	return true
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin(h *helper.HTTPHelper) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			h.SendForbiddenError(c, "Insufficient permissions", h.EmptyJsonMap())
			c.Abort()
			return
		}
		c.Next()
	}
}

func PersonID(c *gin.Context) string {
	return c.GetString(ctxPersonID)
}

func IsAdmin(c *gin.Context) bool {
	return c.GetBool(ctxIsAdmin)
}

// Actor is the caller as the services see it; anonymous when no token was
// presented.
func Actor(c *gin.Context) models.Actor {
	return models.Actor{ID: PersonID(c), IsAdmin: IsAdmin(c)}
}
