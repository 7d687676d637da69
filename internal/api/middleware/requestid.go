package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/xilef-bot/evalbot/internal/dispatch"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

var requestIDRe = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// RequestID tags every request with an id, taken from the caller when it is
// well formed and generated otherwise. The id becomes the invocation id of
// any dispatch made while serving the request.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !requestIDRe.MatchString(id) {
			id = uuid.NewString()
		}

		c.Request = c.Request.WithContext(dispatch.WithInvocationID(c.Request.Context(), id))
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
