// Package main is adminctl, the command line admin console for agencies and companies.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/agencydesk/console/internal/apierrors"
	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
)

var logLevel *slog.LevelVar = &slog.LevelVar{}

type rootOptions struct {
	configPath string
	output     string
	session    string
	debug      bool
}

func main() {
	logLevel.Set(slog.LevelWarn)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	sentry.Flush(2 * time.Second)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, apierrors.ErrNotLoggedIn) || errors.Is(err, apierrors.ErrAuthenticationExpired) {
			fmt.Fprintln(os.Stderr, "Run \"adminctl login\" to start a new session.")
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "adminctl",
		Short:         "Admin console for staffing agencies and companies",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.debug {
				logLevel.Set(slog.LevelDebug)
			}
			return validateOutputFormat(opts.output)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "directory containing config.yaml")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", outputJSON, "output format, one of json, yaml")
	root.PersistentFlags().StringVar(&opts.session, "session", "", "name of the admin session, overrides the configuration")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(newLoginCmd(opts))
	root.AddCommand(newRegisterCmd(opts))
	root.AddCommand(newLogoutCmd(opts))
	root.AddCommand(newWhoamiCmd(opts))
	root.AddCommand(newTokenCmd(opts))
	root.AddCommand(newAgenciesCmd(opts))
	root.AddCommand(newCompaniesCmd(opts))

	return root
}
