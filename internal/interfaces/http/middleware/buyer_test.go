package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketplace/backend/internal/domain/shared"
)

func newTestContext(t *testing.T, target string) *gin.Context {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestSessionBuyerResolver(t *testing.T) {
	resolver := NewSessionBuyerResolver()

	t.Run("resolves the authenticated user", func(t *testing.T) {
		userID := uuid.New()
		c := newTestContext(t, "/api/v1/cart")
		c.Set(JWTUserIDKey, userID.String())

		got, err := resolver.ResolveBuyerID(c)

		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("missing claims mean unauthorized", func(t *testing.T) {
		c := newTestContext(t, "/api/v1/cart")

		_, err := resolver.ResolveBuyerID(c)

		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("non-uuid claim means unauthorized", func(t *testing.T) {
		c := newTestContext(t, "/api/v1/cart")
		c.Set(JWTUserIDKey, "not-a-uuid")

		_, err := resolver.ResolveBuyerID(c)

		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}

func TestParamBuyerResolver(t *testing.T) {
	resolver := NewParamBuyerResolver()

	t.Run("resolves from query parameter", func(t *testing.T) {
		buyerID := uuid.New()
		c := newTestContext(t, "/internal/cart?buyer_id="+buyerID.String())

		got, err := resolver.ResolveBuyerID(c)

		require.NoError(t, err)
		assert.Equal(t, buyerID, got)
	})

	t.Run("missing parameter is invalid input", func(t *testing.T) {
		c := newTestContext(t, "/internal/cart")

		_, err := resolver.ResolveBuyerID(c)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
	})

	t.Run("malformed parameter is invalid input", func(t *testing.T) {
		c := newTestContext(t, "/internal/cart?buyer_id=abc")

		_, err := resolver.ResolveBuyerID(c)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
	})
}
