package errutil

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hippo/pkg/utils/logging"
)

// Handle logs the error with a message, reports it to Sentry when a client
// is configured and returns the error unchanged.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}
	logError(ctx, msg, err)
	Report(ctx, err)
	return err
}

// HandleHTTP logs the error and writes it as a plain text response. Server
// side failures are reported to Sentry and their details stay out of the
// response body.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	if err == nil {
		return
	}
	logError(ctx, "HTTP error", err, slog.Int("status", statusCode))

	body := err.Error()
	if statusCode >= http.StatusInternalServerError {
		Report(ctx, err)
		body = http.StatusText(statusCode)
	}
	http.Error(w, body, statusCode)
}

// Report sends the error to Sentry. It does nothing unless sentry.Init has
// been called with a DSN.
func Report(ctx context.Context, err error) {
	if err == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub.Client() == nil {
		return
	}

	hub.WithScope(func(scope *sentry.Scope) {
		if ge := asGoErr(err); ge != nil {
			for k, v := range ge.Values() {
				scope.SetExtra(k, v)
			}
		}
		hub.CaptureException(err)
	})
}

func logError(ctx context.Context, msg string, err error, attrs ...any) {
	attrs = append(attrs, slog.String("error", err.Error()))
	if ge := asGoErr(err); ge != nil {
		attrs = append(attrs, slog.Any("values", ge.Values()), slog.Any("stack", ge.Stacks()))
	}
	logging.From(ctx).Error(msg, attrs...)
}

func asGoErr(err error) *goerr.Error {
	var ge *goerr.Error
	if errors.As(err, &ge) {
		return ge
	}
	return nil
}
