package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-commerce-backend/internal/errhandling"
)

// Errors renders the last error attached with c.Error through the registry,
// unless the handler already wrote a response.
func Errors(reg *errhandling.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		respond(c, reg, c.Errors.Last().Err)
	}
}

// Recovery converts a panic into an error and renders it through the
// registry. The stack trace goes to the request log.
func Recovery(reg *errhandling.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", rec)
			}
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond(c, reg, err)
		}()
		c.Next()
	}
}

func respond(c *gin.Context, reg *errhandling.Registry, err error) {
	resp := reg.Dispatch(err, errhandling.Request{
		Method:    c.Request.Method,
		Path:      c.Request.URL.Path,
		RequestID: RequestIDFrom(c),
	})
	c.AbortWithStatusJSON(resp.Status, resp.Body)
}
