package handler

import (
	checkoutapp "github.com/marketplace/backend/internal/application/checkout"
	orderapp "github.com/marketplace/backend/internal/application/order"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderHandler handles checkout and order lifecycle API endpoints
type OrderHandler struct {
	BaseHandler
	checkoutService *checkoutapp.Service
	orderService    *orderapp.Service
	buyerResolver   middleware.BuyerResolver
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(
	checkoutService *checkoutapp.Service,
	orderService *orderapp.Service,
	buyerResolver middleware.BuyerResolver,
) *OrderHandler {
	return &OrderHandler{
		checkoutService: checkoutService,
		orderService:    orderService,
		buyerResolver:   buyerResolver,
	}
}

func (h *OrderHandler) caller(c *gin.Context) (orderapp.Caller, error) {
	userID, err := getUserID(c)
	if err != nil {
		return orderapp.Caller{}, err
	}
	return orderapp.Caller{
		UserID: userID,
		Role:   identity.Role(getUserRole(c)),
	}, nil
}

// Create godoc
// @Summary      Place an order
// @Description  Reserve stock for every requested line and create the order.
// @Description  Reservation is all or nothing; a single unavailable line
// @Description  rejects the whole request.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body checkoutapp.PlaceOrderRequest true "Checkout request"
// @Success      201 {object} dto.Response{data=orderapp.Response}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	buyerID, err := h.buyerResolver.ResolveBuyerID(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	var req checkoutapp.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.checkoutService.PlaceOrder(c.Request.Context(), buyerID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, resp)
}

// GetByID godoc
// @Summary      Get an order
// @Description  Buyers see their own orders, sellers see orders containing
// @Description  their listings, admins see everything
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.Response}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetByID(c *gin.Context) {
	caller, err := h.caller(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	resp, err := h.orderService.GetByID(c.Request.Context(), caller, orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// List godoc
// @Summary      List the buyer's orders
// @Tags         orders
// @Produce      json
// @Param        status query string false "Filter by status"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]orderapp.Response}
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	caller, err := h.caller(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	buyerID, err := h.buyerResolver.ResolveBuyerID(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	var filter orderapp.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		h.BadRequest(c, "Unknown order status")
		return
	}

	resp, err := h.orderService.ListByBuyer(c.Request.Context(), caller, buyerID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Transition godoc
// @Summary      Change order status
// @Description  Drive the order lifecycle. Which transitions are allowed
// @Description  depends on the caller's relationship to the order.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body orderapp.TransitionRequest true "Target status"
// @Success      200 {object} dto.Response{data=orderapp.Response}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/status [patch]
func (h *OrderHandler) Transition(c *gin.Context) {
	caller, err := h.caller(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req orderapp.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	target := order.Status(req.Target)
	if !target.IsValid() {
		h.BadRequest(c, "Unknown order status")
		return
	}

	resp, err := h.orderService.Transition(c.Request.Context(), caller, orderID, target)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// CreatePaymentIntent godoc
// @Summary      Create a payment intent
// @Description  Register a payment intent with the payment provider and
// @Description  return the client secret for the frontend confirmation flow
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body orderapp.CreatePaymentIntentRequest true "Intent request"
// @Success      200 {object} dto.Response{data=orderapp.PaymentIntentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/intent [post]
func (h *OrderHandler) CreatePaymentIntent(c *gin.Context) {
	caller, err := h.caller(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req orderapp.CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.orderService.CreatePaymentIntent(c.Request.Context(), caller, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}
