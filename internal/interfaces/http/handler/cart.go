package handler

import (
	cartapp "github.com/marketplace/backend/internal/application/cart"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CartHandler handles shopping cart API endpoints. The buyer a request
// acts on is determined by the configured BuyerResolver, not by the
// request body.
type CartHandler struct {
	BaseHandler
	cartService   *cartapp.Service
	buyerResolver middleware.BuyerResolver
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *cartapp.Service, buyerResolver middleware.BuyerResolver) *CartHandler {
	return &CartHandler{
		cartService:   cartService,
		buyerResolver: buyerResolver,
	}
}

// Get godoc
// @Summary      Get the cart
// @Description  Return the buyer's cart joined with current listing state
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response{data=cartapp.Response}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	buyerID, err := h.buyerResolver.ResolveBuyerID(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	resp, err := h.cartService.Get(c.Request.Context(), buyerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// AddItem godoc
// @Summary      Add a listing to the cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body cartapp.AddItemRequest true "Item to add"
// @Success      200 {object} dto.Response{data=cartapp.Response}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	buyerID, err := h.buyerResolver.ResolveBuyerID(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	var req cartapp.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.cartService.AddItem(c.Request.Context(), buyerID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// UpdateItem godoc
// @Summary      Change the quantity of a cart item
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        id path string true "Cart item ID" format(uuid)
// @Param        request body cartapp.UpdateItemRequest true "New quantity"
// @Success      200 {object} dto.Response{data=cartapp.Response}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart/items/{id} [patch]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	buyerID, err := h.buyerResolver.ResolveBuyerID(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid cart item ID format")
		return
	}

	var req cartapp.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.cartService.UpdateItem(c.Request.Context(), buyerID, itemID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// RemoveItem godoc
// @Summary      Remove a cart item
// @Tags         cart
// @Param        id path string true "Cart item ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart/items/{id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	buyerID, err := h.buyerResolver.ResolveBuyerID(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid cart item ID format")
		return
	}

	if err := h.cartService.RemoveItem(c.Request.Context(), buyerID, itemID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Clear godoc
// @Summary      Empty the cart
// @Tags         cart
// @Success      204
// @Security     BearerAuth
// @Router       /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	buyerID, err := h.buyerResolver.ResolveBuyerID(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	if err := h.cartService.Clear(c.Request.Context(), buyerID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
