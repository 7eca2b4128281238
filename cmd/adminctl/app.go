package main

import (
	"log/slog"

	"github.com/agencydesk/console/internal/apiclient"
	"github.com/agencydesk/console/internal/config"
	"github.com/agencydesk/console/internal/console"
	"github.com/agencydesk/console/internal/sessionstore"
	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
)

// app holds the services shared by the commands.
type app struct {
	config    config.Config
	store     *sessionstore.Store
	client    *apiclient.Client
	sessions  *console.Sessions
	agencies  *console.Agencies
	companies *console.Companies
	printer   printer
}

func newApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	extraPaths := []string{}
	if opts.configPath != "" {
		extraPaths = append(extraPaths, opts.configPath)
	}
	consoleConfig, err := config.NewConfigHandler(extraPaths...).Config()
	if err != nil {
		return nil, err
	}
	if consoleConfig.DebugMode {
		logLevel.Set(slog.LevelDebug)
	}
	slog.Debug("loaded config", "config", consoleConfig)
	if opts.session != "" {
		consoleConfig.Session.Name = opts.session
	}
	store, err := sessionstore.NewStore(sessionstore.WithConfig(consoleConfig.Session, consoleConfig.Redis))
	if err != nil {
		return nil, err
	}
	clientOptions := []apiclient.ClientOption{
		apiclient.WithConfig(consoleConfig.API),
		apiclient.WithTokenStore(store),
	}
	if consoleConfig.Monitoring.Sentry.Enabled {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              string(consoleConfig.Monitoring.Sentry.Dsn),
			TracesSampleRate: consoleConfig.Monitoring.Sentry.SampleRate,
			Environment:      consoleConfig.Monitoring.Sentry.Environment,
		})
		if err != nil {
			slog.Error("sentry initialization failed", "error", err)
		} else {
			clientOptions = append(clientOptions, apiclient.WithErrorReporter(apiclient.SentryReporter{}))
		}
	}
	client, err := apiclient.NewClient(clientOptions...)
	if err != nil {
		return nil, err
	}
	sessions, err := console.NewSessions(client, store)
	if err != nil {
		return nil, err
	}
	agencies, err := console.NewAgencies(client)
	if err != nil {
		return nil, err
	}
	companies, err := console.NewCompanies(client)
	if err != nil {
		return nil, err
	}
	return &app{
		config:    consoleConfig,
		store:     store,
		client:    client,
		sessions:  sessions,
		agencies:  agencies,
		companies: companies,
		printer:   printer{format: opts.output, out: cmd.OutOrStdout()},
	}, nil
}
