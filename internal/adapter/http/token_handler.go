package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aq2208/storefront-checkout/internal/security"
)

type TokenHandler struct {
	tokens *security.Tokens
}

func NewTokenHandler(tokens *security.Tokens) *TokenHandler {
	return &TokenHandler{tokens: tokens}
}

// POST /v1/token
// Starts an anonymous shopper session. The returned user id namespaces the
// shopper's cart, promo and checkout.
func (h *TokenHandler) IssueToken(c *gin.Context) {
	signed, userID, err := h.tokens.IssueGuest()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": signed,
		"token_type":   "Bearer",
		"expires_in":   int64(h.tokens.TTL().Seconds()),
		"user_id":      userID,
	})
}
