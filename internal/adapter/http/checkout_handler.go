package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aq2208/storefront-checkout/internal/adapter/http/middleware"
	"github.com/aq2208/storefront-checkout/internal/checkout"
	"github.com/aq2208/storefront-checkout/internal/entity"
	"github.com/aq2208/storefront-checkout/internal/usecase"
)

type CheckoutHandler struct {
	svc          *usecase.CheckoutService
	placeTimeout time.Duration
}

// NewCheckoutHandler takes the deadline for order placement, which must
// cover the simulated payment round trip.
func NewCheckoutHandler(svc *usecase.CheckoutService, placeTimeout time.Duration) *CheckoutHandler {
	if placeTimeout <= 0 {
		placeTimeout = 5 * time.Second
	}
	return &CheckoutHandler{svc: svc, placeTimeout: placeTimeout}
}

// sessionResp never carries the card number or CVV.
type sessionResp struct {
	Step          checkout.Step        `json:"step"`
	Address       entity.Address       `json:"address"`
	PaymentMethod entity.PaymentMethod `json:"paymentMethod"`
	CardHolder    string               `json:"cardHolder,omitempty"`
	CardLast4     string               `json:"cardLast4,omitempty"`
	OrderID       string               `json:"orderId,omitempty"`
}

func toSessionResp(s *checkout.Session) sessionResp {
	return sessionResp{
		Step:          s.Step,
		Address:       s.Address,
		PaymentMethod: s.PaymentMethod,
		CardHolder:    s.Card.Holder,
		CardLast4:     s.CardLast4,
		OrderID:       s.OrderID,
	}
}

func (h *CheckoutHandler) respond(c *gin.Context, s *checkout.Session, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResp(s))
}

func (h *CheckoutHandler) Start(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sessionTimeout)
	defer cancel()
	s, err := h.svc.Start(ctx, middleware.UserID(c))
	h.respond(c, s, err)
}

func (h *CheckoutHandler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sessionTimeout)
	defer cancel()
	s, err := h.svc.State(ctx, middleware.UserID(c))
	h.respond(c, s, err)
}

// Fields are validated by the checkout step so every missing one is
// reported together.
func (h *CheckoutHandler) SubmitAddress(c *gin.Context) {
	var req entity.Address
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), sessionTimeout)
	defer cancel()
	s, err := h.svc.SubmitAddress(ctx, middleware.UserID(c), req)
	h.respond(c, s, err)
}

type paymentReq struct {
	Method entity.PaymentMethod `json:"method" binding:"required"`
	Card   checkout.CardDetails `json:"card"`
}

func (h *CheckoutHandler) SubmitPayment(c *gin.Context) {
	var req paymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), sessionTimeout)
	defer cancel()
	s, err := h.svc.SubmitPayment(ctx, middleware.UserID(c), req.Method, req.Card)
	h.respond(c, s, err)
}

func (h *CheckoutHandler) Back(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sessionTimeout)
	defer cancel()
	s, err := h.svc.Back(ctx, middleware.UserID(c))
	h.respond(c, s, err)
}

// Place answers 201 for a new order and 200 when X-Idempotency-Key
// replays an earlier one.
func (h *CheckoutHandler) Place(c *gin.Context) {
	idemKey := c.GetHeader("X-Idempotency-Key") // prevent duplicated orders

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.placeTimeout)
	defer cancel()

	out, err := h.svc.PlaceOrder(ctx, usecase.PlaceOrderInput{
		UserID:         middleware.UserID(c),
		IdempotencyKey: idemKey,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusCreated
	if out.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, out.Order)
}
