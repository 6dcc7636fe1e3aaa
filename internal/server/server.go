package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"newsdesk/internal/articles"
	"newsdesk/internal/domain"
	"newsdesk/internal/speech"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Pinger is the health probe over the store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tune defaults the handlers apply to requests.
type Options struct {
	SpeechVoice  string
	SpeechFormat string
	SpeechSpeed  float64
	Version      string
}

// Server wires the HTTP surface over the article service.
type Server struct {
	echo   *echo.Echo
	svc    *articles.Service
	synth  speech.Synthesizer
	pinger Pinger
	opts   Options
	log    *slog.Logger
}

func New(
	svc *articles.Service,
	synth speech.Synthesizer,
	pinger Pinger,
	opts Options,
	log *slog.Logger,
) *Server {
	s := &Server{
		echo:   echo.New(),
		svc:    svc,
		synth:  synth,
		pinger: pinger,
		opts:   opts,
		log:    log,
	}

	s.echo.HideBanner = true
	s.echo.HTTPErrorHandler = s.errorHandler

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.InfoContext(c.Request().Context(), "HTTP request completed",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"error", v.Error)

			return nil
		},
	}))
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORS())

	s.routes()

	return s
}

func (s *Server) routes() {
	s.echo.GET("/health", s.handleHealth)

	api := s.echo.Group("/api")
	api.POST("/articles/", s.handleCreateArticle)
	api.GET("/articles/", s.handleListArticles)
	api.GET("/articles/:id", s.handleGetArticle)
	api.PUT("/articles/:id", s.handleUpdateArticle)
	api.DELETE("/articles/:id", s.handleDeleteArticle)
	api.POST("/articles/:id/audio", s.handleArticleAudio)
	api.GET("/speech/voices", s.handleVoices)
}

// Echo exposes the router for serving and for handler tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type errorBody struct {
	Code    domain.Code `json:"code"`
	Message string      `json:"message"`
}

// errorHandler maps domain error codes onto HTTP statuses so handlers can
// return service errors as-is.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := errorBody{Code: domain.CodeInternal, Message: "internal error"}

	var (
		domainErr *domain.Error
		httpErr   *echo.HTTPError
	)

	switch {
	case errors.As(err, &domainErr):
		body.Code = domainErr.Code
		body.Message = domainErr.Message
		status = statusFor(domainErr.Code)
	case errors.As(err, &httpErr):
		status = httpErr.Code
		body.Code = domain.CodeValidation
		if status >= http.StatusInternalServerError {
			body.Code = domain.CodeInternal
		}
		if msg, ok := httpErr.Message.(string); ok {
			body.Message = msg
		} else {
			body.Message = http.StatusText(status)
		}
	}

	if status >= http.StatusInternalServerError {
		s.log.ErrorContext(c.Request().Context(), "Request failed",
			"error", err,
			"status", status,
			"uri", c.Request().RequestURI)
	}

	if writeErr := c.JSON(status, map[string]errorBody{"error": body}); writeErr != nil {
		s.log.ErrorContext(c.Request().Context(), "Failed to write error response",
			"error", writeErr)
	}
}

func statusFor(code domain.Code) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeConflict:
		return http.StatusConflict
	case domain.CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
