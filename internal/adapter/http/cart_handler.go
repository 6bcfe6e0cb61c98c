package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aq2208/storefront-checkout/internal/adapter/http/middleware"
	"github.com/aq2208/storefront-checkout/internal/entity"
	"github.com/aq2208/storefront-checkout/internal/usecase"
)

const sessionTimeout = 2 * time.Second

type CartHandler struct {
	cart  *usecase.CartService
	promo *usecase.PromoService
}

func NewCartHandler(cart *usecase.CartService, promo *usecase.PromoService) *CartHandler {
	return &CartHandler{cart: cart, promo: promo}
}

type cartResp struct {
	Items     []entity.LineItem `json:"items"`
	ItemCount int               `json:"itemCount"`
	Subtotal  string            `json:"subtotal"`
}

func toCartResp(c entity.Cart) cartResp {
	items := c.Items
	if items == nil {
		items = []entity.LineItem{}
	}
	return cartResp{Items: items, ItemCount: c.ItemCount(), Subtotal: c.Subtotal().StringFixed(2)}
}

func (h *CartHandler) respond(c *gin.Context, cart entity.Cart, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResp(cart))
}

func (h *CartHandler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sessionTimeout)
	defer cancel()
	cart, err := h.cart.Get(ctx, middleware.UserID(c))
	h.respond(c, cart, err)
}

type addItemReq struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"omitempty,gte=1"`
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req addItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), sessionTimeout)
	defer cancel()
	cart, err := h.cart.AddItem(ctx, middleware.UserID(c), req.ProductID, req.Quantity)
	h.respond(c, cart, err)
}

type setQuantityReq struct {
	Quantity int `json:"quantity" binding:"required"`
}

func (h *CartHandler) SetQuantity(c *gin.Context) {
	var req setQuantityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), sessionTimeout)
	defer cancel()
	cart, err := h.cart.SetQuantity(ctx, middleware.UserID(c), c.Param("productId"), req.Quantity)
	h.respond(c, cart, err)
}

func (h *CartHandler) Increment(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sessionTimeout)
	defer cancel()
	cart, err := h.cart.Increment(ctx, middleware.UserID(c), c.Param("productId"))
	h.respond(c, cart, err)
}

func (h *CartHandler) Decrement(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sessionTimeout)
	defer cancel()
	cart, err := h.cart.Decrement(ctx, middleware.UserID(c), c.Param("productId"))
	h.respond(c, cart, err)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sessionTimeout)
	defer cancel()
	cart, err := h.cart.Remove(ctx, middleware.UserID(c), c.Param("productId"))
	h.respond(c, cart, err)
}

func (h *CartHandler) Clear(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sessionTimeout)
	defer cancel()
	if err := h.cart.Clear(ctx, middleware.UserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CartHandler) Summary(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sessionTimeout)
	defer cancel()
	out, err := h.promo.Summary(ctx, middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cart":               toCartResp(out.Cart),
		"summary":            out.Summary,
		"appliedPromo":       out.AppliedPromo,
		"promoMinimumNotMet": out.PromoMinimumNotMet,
	})
}

type applyPromoReq struct {
	Code string `json:"code" binding:"required"`
}

// ApplyPromo answers 200 when the code is applied and 422 with the
// rejection message otherwise.
func (h *CartHandler) ApplyPromo(c *gin.Context) {
	var req applyPromoReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), sessionTimeout)
	defer cancel()
	res, err := h.promo.Apply(ctx, middleware.UserID(c), req.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, res)
}

func (h *CartHandler) CurrentPromo(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sessionTimeout)
	defer cancel()
	p, err := h.promo.Current(ctx, middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appliedPromo": p})
}

func (h *CartHandler) RemovePromo(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sessionTimeout)
	defer cancel()
	if err := h.promo.Remove(ctx, middleware.UserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
