package middleware

import (
	"GameStore/pkg/apperr"
	"GameStore/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler turns the last error a handler attached with c.Error into the
// error envelope. Unexpected errors become 500; in release mode their message is withheld.
func ErrorHandler(release bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		ae := apperr.From(err)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("code", ae.Code),
			zap.Error(err),
		}
		if ae.Kind == apperr.KindInternal {
			zap.L().Error("request failed", fields...)
		} else {
			zap.L().Warn("request rejected", fields...)
		}

		msg := ae.Message
		if ae.Kind == apperr.KindInternal && !release && ae.Err != nil {
			msg = ae.Err.Error()
		}
		response.ReplyError(c, ae.Status(), ae.Code, msg)
	}
}
