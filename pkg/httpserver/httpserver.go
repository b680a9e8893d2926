// Package httpserver exposes recipe runs over HTTP.
package httpserver

import (
	"context"
	"crypto/subtle"
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
	"golang.org/x/net/http2"

	"github.com/admariner/wrangles/pkg/gologger"
	"github.com/admariner/wrangles/pkg/recipe"
	"github.com/admariner/wrangles/pkg/utils"
)

var logger = gologger.NewLogger()

type HTTPServer struct {
	Echo  *echo.Echo
	opts  []recipe.Option
	token string
}

type CustomValidator struct {
	validator *validator.Validate
}

// New builds the router. Posted recipes cannot read the process
// environment and reach no connectors besides the `dataframe` write;
// opts apply after that, e.g. recipe.WithConnectors to open more, custom
// functions or common parameters. /run requires the bearer token in
// WRANGLES_API_TOKEN and is refused while it is unset.
func New(opts ...recipe.Option) *HTTPServer {
	s := &HTTPServer{
		Echo:  echo.New(),
		opts:  append([]recipe.Option{recipe.WithoutEnv(), recipe.WithConnectors()}, opts...),
		token: utils.GetEnvOrDefault("WRANGLES_API_TOKEN", ""),
	}
	s.Echo.HideBanner = true
	s.Echo.HidePort = true

	s.Echo.Use(CreateReqContext)
	s.Echo.Use(LoggerMiddleware)
	if origins := utils.GetEnvOrDefault("WRANGLES_CORS_ORIGINS", ""); origins != "" {
		s.Echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: strings.Split(origins, ",")}))
	}
	s.Echo.Validator = &CustomValidator{validator: validator.New()}

	// technical - no auth
	s.Echo.GET("/hc", s.HealthCheck)

	s.Echo.POST("/run", ccHandler(s.RunRecipe), s.requireToken())
	return s
}

func (s *HTTPServer) requireToken() echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		Validator: func(key string, _ echo.Context) (bool, error) {
			return s.token != "" && subtle.ConstantTimeCompare([]byte(key), []byte(s.token)) == 1, nil
		},
		ErrorHandler: func(err error, _ echo.Context) error {
			if s.token == "" {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "WRANGLES_API_TOKEN is not set")
			}
			return &echo.HTTPError{Code: http.StatusUnauthorized, Message: "Unauthorized", Internal: err}
		},
	})
}

// Start listens on host:port and serves h2c in the background. An empty
// host means 127.0.0.1.
func (s *HTTPServer) Start(host, port string) error {
	if host == "" {
		host = "127.0.0.1"
	}
	listener, err := net.Listen("tcp", net.JoinHostPort(host, port))
	if err != nil {
		return fmt.Errorf("error creating tcp listener: %w", err)
	}
	s.Echo.Listener = listener
	go func() {
		logger.Info().Msg("starting h2c server on " + listener.Addr().String())
		err := s.Echo.StartH2CServer("", &http2.Server{})
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("h2c server stopped")
		}
	}()
	return nil
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func ValidateRequest(c echo.Context, s interface{}) error {
	if err := c.Bind(s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(s); err != nil {
		return err
	}
	return nil
}

func (*HTTPServer) HealthCheck(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
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
		logger.Debug().Str("method", req.Method).Str("remote_ip", c.RealIP()).Str("path", p).Int("status", res.Status).Int64("latency_ns", int64(stop)).Int64("bytes_out", res.Size).Msg("req received")
		return nil
	}
}
