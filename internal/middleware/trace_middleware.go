package middleware

import (
	"movieReco/business/hybrid"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const HeaderRequestID = "X-Request-ID"

// TraceID propagates the caller's X-Request-ID, or a fresh uuid, into the
// request context and the response header.
func TraceID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			traceID := c.Request().Header.Get(HeaderRequestID)
			if traceID == "" {
				traceID = uuid.NewString()
			}

			req := c.Request()
			c.SetRequest(req.WithContext(hybrid.WithTraceID(req.Context(), traceID)))
			c.Response().Header().Set(HeaderRequestID, traceID)
			c.Set("trace_id", traceID)

			return next(c)
		}
	}
}
