package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SergeyShakirov/TaskGo/backend/model"
)

// BodyLimit caps request bodies at n bytes. Reads past the cap fail, which
// surfaces as a bind error in the handler.
func BodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, model.Response{
				Success: false,
				Message: "Request body too large",
			})
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
