package apiclient

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// ErrorReporter receives the failures of the pipeline that are not business errors.
type ErrorReporter interface {
	Report(ctx context.Context, err error)
}

type ErrorReporterFunc func(ctx context.Context, err error)

func (f ErrorReporterFunc) Report(ctx context.Context, err error) {
	f(ctx, err)
}

// SentryReporter sends errors to the sentry hub of the context or the current hub.
type SentryReporter struct{}

func (SentryReporter) Report(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}
