package chartserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// Options configures the HTTP server
type Options struct {
	DefaultRowLimit int
	SamplesRowLimit int
	// AuthToken, when set, is required as a bearer token
	AuthToken string
	Logger    zerolog.Logger
}

// HTTPServer serves the chart data API over a Source
type HTTPServer struct {
	Echo   *echo.Echo
	source Source
	opts   Options
	logger zerolog.Logger
}

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// New builds the server without starting it. The Echo instance is an
// http.Handler, which is how tests drive it.
func New(source Source, opts Options) *HTTPServer {
	if opts.DefaultRowLimit <= 0 {
		opts.DefaultRowLimit = 10000
	}
	if opts.SamplesRowLimit <= 0 {
		opts.SamplesRowLimit = 1000
	}

	s := &HTTPServer{
		Echo:   echo.New(),
		source: source,
		opts:   opts,
		logger: opts.Logger,
	}
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.Validator = &CustomValidator{validator: validator.New()}

	s.Echo.Use(s.CreateReqContext)
	s.Echo.Use(LoggerMiddleware)
	s.Echo.Use(middleware.CORS())

	// technical - no auth
	s.Echo.GET("/health", s.HealthCheck)

	api := s.Echo.Group("/api/v1", s.authMiddleware)
	api.POST("/chart/data", ccHandler(s.ChartDataHandler))

	return s
}

// Start listens on addr until ctx is cancelled
func (s *HTTPServer) Start(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("error creating tcp listener: %w", err)
	}
	s.Echo.Listener = listener

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Msg("starting chart data server on " + listener.Addr().String())
		errCh <- s.Echo.Start("")
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("chart data server failed: %w", err)
		}
		return nil
	}
}

func (*HTTPServer) HealthCheck(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

func (s *HTTPServer) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.opts.AuthToken == "" {
			return next(c)
		}
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token != s.opts.AuthToken {
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized")
		}
		return next(c)
	}
}

func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			// default handler
			c.Error(err)
		}
		stop := time.Since(start)

		logger := zerolog.Ctx(c.Request().Context())
		req := c.Request()
		res := c.Response()

		p := req.URL.Path
		if p == "" {
			p = "/"
		}

		logger.Debug().
			Str("method", req.Method).
			Str("remote_ip", c.RealIP()).
			Str("path", p).
			Int("status", res.Status).
			Dur("latency", stop).
			Int64("bytes_out", res.Size).
			Msg("req received")
		return nil
	}
}

// ValidateRequest binds and validates the JSON body into s
func ValidateRequest(c echo.Context, s interface{}) error {
	if err := c.Bind(s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(s); err != nil {
		return err
	}
	return nil
}
