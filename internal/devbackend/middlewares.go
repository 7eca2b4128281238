package devbackend

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/agencydesk/console/internal/config"
	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const metricsSubsystem string = "devbackend"

var requestLogger echo.MiddlewareFunc = middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
	LogStatus:    true,
	LogURI:       true,
	LogError:     true,
	LogRequestID: true,
	LogRoutePath: true,
	LogMethod:    true,
	LogUserAgent: true,
	HandleError:  true, // forwards error to the global error handler, so it can decide appropriate status code
	LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
		attrs := []slog.Attr{
			slog.String("uri", v.URI),
			slog.Int("status", v.Status),
			slog.String("requestID", v.RequestID),
			slog.String("method", v.Method),
			slog.String("handler", v.RoutePath),
			slog.String("userAgent", v.UserAgent),
			slog.String("traceID", traceID(c)),
		}
		if v.Error == nil {
			slog.Default().LogAttrs(context.Background(), slog.LevelInfo, "REQUEST", attrs...)
			return nil
		}
		attrs = append(attrs, slog.String("error", v.Error.Error()))
		slog.Default().LogAttrs(context.Background(), slog.LevelError, "REQUEST_ERROR", attrs...)
		return nil
	},
})

func traceID(c echo.Context) string {
	if span := sentry.TransactionFromContext(c.Request().Context()); span != nil {
		return span.TraceID.String()
	}
	return ""
}

// NoCaching sets headers in responses that prevent caching of tokens by clients and proxies.
func NoCaching(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		headers := c.Response().Header()
		headers.Set("Expires", time.Unix(0, 0).Format(time.RFC1123))
		headers.Set("Cache-Control", "no-cache, no-store, must-revalidate, max-age=0")
		return next(c)
	}
}

// NewEcho returns an echo instance with the dev backend routes and middlewares registered.
func NewEcho(server *Server, monitoring config.MonitoringConfig) *echo.Echo {
	e := echo.New()
	// The banner and the port do not respect the logger formatting
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler
	// Keep the request ID sent by the console so both sides log the same value
	e.Pre(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			id, err := server.requestIDs.ID()
			if err != nil {
				return ""
			}
			return id
		},
	}), middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	if monitoring.Sentry.Enabled {
		e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	}
	if monitoring.Prometheus.Enabled {
		e.Use(echoprometheus.NewMiddleware(metricsSubsystem))
	}
	limits := server.config.RateLimits
	if limits.Enabled {
		e.Use(middleware.RateLimiter(
			middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{
					Rate:      rate.Limit(limits.Rate),
					Burst:     limits.Burst,
					ExpiresIn: 3 * time.Minute,
				}),
		))
	}
	if len(server.config.AllowOrigin) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: server.config.AllowOrigin}))
	}
	e.GET("/health", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	server.RegisterHandlers(e, requestLogger, NoCaching)
	return e
}
