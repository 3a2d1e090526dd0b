package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marketplace/backend/internal/domain/shared"
)

// MaxIdempotencyKeyLength bounds the Idempotency-Key header.
const MaxIdempotencyKeyLength = 128

// Idempotency returns a middleware that rejects replays of requests
// carrying an Idempotency-Key header. The key is scoped to the
// authenticated user, so two users may reuse the same key.
//
// Requests without the header pass through untouched. A key that was
// already accepted within the TTL is rejected with 409 before the
// handler runs.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Idempotency-Key")
		if key == "" {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_IDEMPOTENCY_KEY",
					"message": "Idempotency-Key exceeds maximum allowed length",
				},
			})
			return
		}

		scoped := scopedIdempotencyKey(c, key)
		fresh, err := store.MarkProcessed(c.Request.Context(), scoped, ttl)
		if err != nil {
			// The store being down must not block checkout.
			c.Next()
			return
		}
		if !fresh {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DUPLICATE_REQUEST",
					"message": "A request with this Idempotency-Key was already accepted",
				},
			})
			return
		}

		c.Next()
	}
}

// scopedIdempotencyKey prefixes the client key with the request path and
// the authenticated user id, so keys do not collide across users or
// endpoints.
func scopedIdempotencyKey(c *gin.Context, key string) string {
	userID := ""
	if v, exists := c.Get(JWTUserIDKey); exists {
		if id, ok := v.(string); ok {
			userID = id
		}
	}
	return "idem:" + c.FullPath() + ":" + userID + ":" + key
}
