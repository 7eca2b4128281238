// Package main runs the dev backend, a local implementation of the admin API used for development
// and end-to-end tests of the console.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"time"

	"github.com/agencydesk/console/internal/config"
	"github.com/agencydesk/console/internal/devbackend"
	"github.com/agencydesk/console/internal/models"
	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
)

func main() {
	// Logging setup
	slog.SetDefault(jsonLogger)
	// Load configuration
	ch := config.NewConfigHandler()
	consoleConfig, err := ch.Config()
	if err != nil {
		slog.Error("loading the configuration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("loaded config", "config", consoleConfig)
	// Set log level to "debug" if activated
	if consoleConfig.DebugMode {
		logLevel.Set(slog.LevelDebug)
	}
	ch.HandleChanges(func(newConfig config.Config, err error) {
		if err != nil {
			slog.Error("the changed configuration is invalid and was ignored", "error", err)
			return
		}
		if newConfig.DebugMode {
			logLevel.Set(slog.LevelDebug)
		} else {
			logLevel.Set(slog.LevelInfo)
		}
	})
	ch.Watch()
	devConfig := consoleConfig.DevBackend
	if devConfig.JWTSecret == "" {
		if consoleConfig.RunningEnvironment == config.Production {
			slog.Error("the dev backend needs a jwt secret in production")
			os.Exit(1)
		}
		secret, err := models.NewRandomGenerator(32).ID()
		if err != nil {
			slog.Error("generating the jwt secret failed", "error", err)
			os.Exit(1)
		}
		slog.Warn("no jwt secret configured, tokens will not survive a restart")
		devConfig.JWTSecret = config.RedactedString(secret)
	}
	// Sentry
	if consoleConfig.Monitoring.Sentry.Enabled {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              string(consoleConfig.Monitoring.Sentry.Dsn),
			TracesSampleRate: consoleConfig.Monitoring.Sentry.SampleRate,
			Environment:      consoleConfig.Monitoring.Sentry.Environment,
		})
		if err != nil {
			slog.Error("sentry initialization failed", "error", err)
		}
		defer sentry.Flush(2 * time.Second)
	}
	server, err := devbackend.NewServer(devbackend.WithConfig(devConfig))
	if err != nil {
		slog.Error("dev backend initialization failed", "error", err)
		os.Exit(1)
	}
	e := devbackend.NewEcho(server, consoleConfig.Monitoring)
	// Version endpoint
	buildInfo, ok := debug.ReadBuildInfo()
	version := ""
	if ok && buildInfo != nil {
		version = buildInfo.Main.Version
	}
	e.GET("/version", func(c echo.Context) error {
		return c.String(http.StatusOK, version)
	})
	// Refresh token cleanup
	scheduler, err := server.GetScheduler()
	if err != nil {
		slog.Error("failed to setup the token purge scheduler", "error", err)
		os.Exit(1)
	}
	scheduler.StartAsync()
	defer scheduler.Stop()
	// Prometheus
	if consoleConfig.Monitoring.Prometheus.Enabled {
		go func() {
			metrics := echo.New()
			metrics.HideBanner = true
			metrics.HidePort = true
			metrics.GET("/metrics", echoprometheus.NewHandler())
			err := metrics.Start(fmt.Sprintf(":%d", consoleConfig.Monitoring.Prometheus.Port))
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("prometheus server failed to start", "error", err)
				os.Exit(1)
			}
		}()
	}
	// Start server
	address := fmt.Sprintf("%s:%d", devConfig.Host, devConfig.Port)
	slog.Info("starting the dev backend on address " + address)
	go func() {
		err := e.Start(address)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("the dev backend failed", "error", err)
			os.Exit(1)
		}
	}()
	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	slog.Info("received signal to shut down the dev backend")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		slog.Error("shutting down the dev backend gracefully failed", "error", err)
		os.Exit(1)
	}
}
