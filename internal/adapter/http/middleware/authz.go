package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aq2208/storefront-checkout/internal/logging"
	"github.com/aq2208/storefront-checkout/internal/security"
)

const userIDKey = "user_id"

type Authz struct {
	tokens *security.Tokens
}

func NewAuthz(tokens *security.Tokens) *Authz {
	return &Authz{tokens: tokens}
}

// Require checks JWT and ensures all required permissions are present.
// The token subject is stored on the context as the caller's user id.
func (a *Authz) Require(requiredPerms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			unauth(c, "invalid_request", "missing bearer token")
			return
		}

		claims, err := a.tokens.Parse(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			unauth(c, "invalid_token", "invalid jwt")
			return
		}

		if !claims.HasAll(requiredPerms...) {
			forbidden(c, "insufficient_scope", "missing required permissions")
			return
		}

		c.Set(userIDKey, claims.UserID())
		logging.With(c, logging.From(c).With("user_id", claims.UserID()))
		c.Next()
	}
}

// UserID returns the caller set by Require.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func unauth(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code, "error_description": desc})
}

func forbidden(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": code, "error_description": desc})
}
