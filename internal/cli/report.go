package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// flushTimeout bounds how long a crashing CLI waits for Sentry.
const flushTimeout = 5 * time.Second

// Reporter forwards command errors and panics to Sentry. A Reporter built
// with an empty DSN is disabled and every method is a no-op.
type Reporter struct {
	hub *sentry.Hub
}

// NewReporter initialises Sentry for dsn. The command name and version are
// attached as tags.
func NewReporter(dsn, release string) (*Reporter, error) {
	if dsn == "" {
		return &Reporter{}, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:     dsn,
		Release: release,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}

	hub := sentry.NewHub(client, sentry.NewScope())
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("app", "cauldron")
	})
	return &Reporter{hub: hub}, nil
}

// Enabled reports whether errors are sent anywhere.
func (r *Reporter) Enabled() bool { return r != nil && r.hub != nil }

// Capture reports err unless it is an expected failure. Scenario failures
// and replay mismatches (ExitFailure) are results, not faults.
func (r *Reporter) Capture(command string, err error) {
	if !r.Enabled() || err == nil {
		return
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code == ExitFailure {
		return
	}

	hub := r.hub.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("command", command)
		scope.SetTag("exit_code", fmt.Sprint(GetExitCode(err)))
	})
	hub.CaptureException(err)
}

// Recover reports a panic in progress and re-panics. Use with defer.
func (r *Reporter) Recover() {
	if !r.Enabled() {
		return
	}
	if p := recover(); p != nil {
		r.hub.Recover(p)
		r.hub.Flush(flushTimeout)
		panic(p)
	}
}

// Flush waits for queued events to be delivered.
func (r *Reporter) Flush() {
	if r.Enabled() {
		r.hub.Flush(flushTimeout)
	}
}
