package middleware

import (
	"GameStore/pkg/idgen"

	"github.com/gin-gonic/gin"
)

const (
	HeaderRequestID = "X-Request-Id"
	CtxRequestID    = "requestID"
)

// RequestID keeps an incoming X-Request-Id or assigns a new one, so a request carries
// the same id through the gateway and the service that handles it.
func RequestID(ids *idgen.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = ids.NextString()
			c.Request.Header.Set(HeaderRequestID, id)
		}
		c.Set(CtxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}
