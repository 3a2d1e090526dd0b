package handler

import (
	listingapp "github.com/marketplace/backend/internal/application/listing"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ListingHandler handles listing API endpoints
type ListingHandler struct {
	BaseHandler
	listingService *listingapp.Service
}

// NewListingHandler creates a new ListingHandler
func NewListingHandler(listingService *listingapp.Service) *ListingHandler {
	return &ListingHandler{
		listingService: listingService,
	}
}

// Create godoc
// @Summary      Publish a listing
// @Description  Put a quantity of a product up for sale
// @Tags         listings
// @Accept       json
// @Produce      json
// @Param        request body listingapp.CreateRequest true "Listing creation request"
// @Success      201 {object} dto.Response{data=listingapp.Response}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /listings [post]
func (h *ListingHandler) Create(c *gin.Context) {
	sellerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req listingapp.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.listingService.Create(c.Request.Context(), sellerID, identity.Role(getUserRole(c)), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, resp)
}

// Get godoc
// @Summary      Get a listing
// @Tags         listings
// @Produce      json
// @Param        id path string true "Listing ID" format(uuid)
// @Success      200 {object} dto.Response{data=listingapp.Response}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /listings/{id} [get]
func (h *ListingHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	resp, err := h.listingService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// List godoc
// @Summary      Browse active listings
// @Tags         listings
// @Produce      json
// @Param        search query string false "Title search"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]listingapp.Response}
// @Router       /listings [get]
func (h *ListingHandler) List(c *gin.Context) {
	var filter listingapp.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.listingService.ListActive(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListMine godoc
// @Summary      List the authenticated seller's listings
// @Tags         listings
// @Produce      json
// @Success      200 {object} dto.Response{data=[]listingapp.Response}
// @Security     BearerAuth
// @Router       /listings/mine [get]
func (h *ListingHandler) ListMine(c *gin.Context) {
	sellerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter listingapp.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.listingService.ListBySeller(c.Request.Context(), sellerID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Update godoc
// @Summary      Update a listing
// @Description  Change price, quantity or condition note of an owned listing
// @Tags         listings
// @Accept       json
// @Produce      json
// @Param        id path string true "Listing ID" format(uuid)
// @Param        request body listingapp.UpdateRequest true "Fields to change"
// @Success      200 {object} dto.Response{data=listingapp.Response}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /listings/{id} [patch]
func (h *ListingHandler) Update(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	var req listingapp.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.listingService.Update(c.Request.Context(), callerID, identity.Role(getUserRole(c)), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Activate godoc
// @Summary      Reactivate a listing
// @Tags         listings
// @Produce      json
// @Param        id path string true "Listing ID" format(uuid)
// @Success      200 {object} dto.Response{data=listingapp.Response}
// @Security     BearerAuth
// @Router       /listings/{id}/activate [post]
func (h *ListingHandler) Activate(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	resp, err := h.listingService.Activate(c.Request.Context(), callerID, identity.Role(getUserRole(c)), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Deactivate godoc
// @Summary      Take a listing off the market
// @Tags         listings
// @Produce      json
// @Param        id path string true "Listing ID" format(uuid)
// @Success      200 {object} dto.Response{data=listingapp.Response}
// @Security     BearerAuth
// @Router       /listings/{id}/deactivate [post]
func (h *ListingHandler) Deactivate(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	resp, err := h.listingService.Deactivate(c.Request.Context(), callerID, identity.Role(getUserRole(c)), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Delete godoc
// @Summary      Delete a listing
// @Tags         listings
// @Param        id path string true "Listing ID" format(uuid)
// @Success      204
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /listings/{id} [delete]
func (h *ListingHandler) Delete(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	if err := h.listingService.Delete(c.Request.Context(), callerID, identity.Role(getUserRole(c)), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
