package middleware

import (
	"fmt"
	"net/http"

	"github.com/cosmetica/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// multipartOverhead is the allowance for multipart boundaries and form fields
// on top of the file size limit.
const multipartOverhead int64 = 64 << 10

// BodyLimit rejects requests whose declared length exceeds maxBytes and caps
// the body reader for the rest.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodePayloadTooLarge,
				fmt.Sprintf("Request body exceeds maximum allowed size of %d bytes", maxBytes),
				GetRequestID(c),
			))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// UploadLimit is BodyLimit sized for a multipart upload of at most maxFileBytes
func UploadLimit(maxFileBytes int64) gin.HandlerFunc {
	return BodyLimit(maxFileBytes + multipartOverhead)
}
