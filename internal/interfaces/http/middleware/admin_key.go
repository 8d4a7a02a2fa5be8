package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/cosmetica/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminKeyHeader carries the shared secret for admin endpoints
const AdminKeyHeader = "X-Admin-Key"

// AdminKey guards a route group with a shared secret. An empty key rejects
// every request, so an unconfigured server never exposes the import API.
func AdminKey(key string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	expected := []byte(key)

	return func(c *gin.Context) {
		given := []byte(c.GetHeader(AdminKeyHeader))
		if len(expected) == 0 || subtle.ConstantTimeCompare(given, expected) != 1 {
			logger.Warn("rejected admin request",
				zap.String("request_id", GetRequestID(c)),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
				zap.Bool("key_present", len(given) > 0),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized,
				"missing or invalid admin key",
				GetRequestID(c),
			))
			return
		}
		c.Next()
	}
}
