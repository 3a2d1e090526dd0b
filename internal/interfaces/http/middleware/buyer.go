package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/marketplace/backend/internal/domain/shared"
)

// BuyerResolver determines which buyer a request acts on behalf of.
// The session resolver is the production implementation; the param
// resolver exists for trusted internal tooling and tests.
type BuyerResolver interface {
	ResolveBuyerID(c *gin.Context) (uuid.UUID, error)
}

// SessionBuyerResolver reads the buyer identity from validated JWT claims.
// Requires JWTAuthMiddleware to have run on the route.
type SessionBuyerResolver struct{}

// NewSessionBuyerResolver creates a session-backed buyer resolver
func NewSessionBuyerResolver() *SessionBuyerResolver {
	return &SessionBuyerResolver{}
}

// ResolveBuyerID returns the authenticated user's ID
func (r *SessionBuyerResolver) ResolveBuyerID(c *gin.Context) (uuid.UUID, error) {
	userID := GetJWTUserID(c)
	if userID == "" {
		return uuid.Nil, shared.ErrUnauthorized
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, shared.ErrUnauthorized
	}
	return id, nil
}

// ParamBuyerResolver reads the buyer identity from the buyer_id request
// parameter. It trusts the caller and must only be mounted behind an
// internal or admin-gated surface.
type ParamBuyerResolver struct {
	// ParamName is the query/form parameter carrying the buyer ID
	ParamName string
}

// NewParamBuyerResolver creates a parameter-backed buyer resolver
func NewParamBuyerResolver() *ParamBuyerResolver {
	return &ParamBuyerResolver{ParamName: "buyer_id"}
}

// ResolveBuyerID returns the buyer ID named in the request parameter
func (r *ParamBuyerResolver) ResolveBuyerID(c *gin.Context) (uuid.UUID, error) {
	raw := c.Query(r.ParamName)
	if raw == "" {
		raw = c.PostForm(r.ParamName)
	}
	if raw == "" {
		return uuid.Nil, shared.NewDomainError("INVALID_INPUT", "buyer_id parameter is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, shared.NewDomainError("INVALID_INPUT", "buyer_id must be a valid UUID")
	}
	return id, nil
}

var (
	_ BuyerResolver = (*SessionBuyerResolver)(nil)
	_ BuyerResolver = (*ParamBuyerResolver)(nil)
)
