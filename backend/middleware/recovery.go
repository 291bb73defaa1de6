package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/SergeyShakirov/TaskGo/backend/model"
	"github.com/SergeyShakirov/TaskGo/backend/pkg/logger"
)

// Recovery turns a panic into a 500 envelope carrying the panic message.
// When exposeStack is set the stack trace is included in the body.
func Recovery(exposeStack bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			stack := string(debug.Stack())

			logger.Error(c.Request.Context(), "panic recovered",
				"error", rec,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"stack", stack,
			)

			resp := model.Response{Success: false, Message: panicMessage(rec)}
			if exposeStack {
				resp.Stack = stack
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
		}()

		c.Next()
	}
}

func panicMessage(rec any) string {
	switch v := rec.(type) {
	case error:
		return v.Error()
	case string:
		if v != "" {
			return v
		}
	default:
		return fmt.Sprint(v)
	}
	return "Internal server error"
}
