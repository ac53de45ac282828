package chartserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type CustomContext struct {
	echo.Context
	RequestID string
}

// CreateReqContext tags each request with an ID (the caller's X-Request-ID
// when present) and a request-scoped logger
func (s *HTTPServer) CreateReqContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := c.Request().Header.Get(echo.HeaderXRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, reqID)

		logger := s.logger.With().Str("reqID", reqID).Logger()
		ctx := logger.WithContext(c.Request().Context())
		c.SetRequest(c.Request().WithContext(ctx))

		return next(&CustomContext{
			Context:   c,
			RequestID: reqID,
		})
	}
}

// Casts to custom context for the handler, so this doesn't have to be done per handler
func ccHandler(h func(*CustomContext) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		return h(c.(*CustomContext))
	}
}

func (c *CustomContext) InternalError(err error, msg string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		zerolog.Ctx(c.Request().Context()).Warn().Msg(err.Error())
	} else {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg(msg)
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"message": "internal error, request id: " + c.RequestID,
	})
}
