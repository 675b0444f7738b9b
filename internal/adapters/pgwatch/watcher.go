// Package pgwatch provides the realtime role-change watcher. It holds a
// dedicated LISTEN connection on the role_changes channel and publishes an
// identity-change event whenever the current principal's role row changes.
package pgwatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	"github.com/tributary/tribute-ui-api/internal/ports"
)

const channelName = "role_changes"

// reconnectBackoff bounds how fast the watcher retries a lost connection.
const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// WatcherOptions holds the dependencies for creating a Watcher.
type WatcherOptions struct {
	Pool *pgxpool.Pool
	Sink ports.EventSink
	// PrincipalID returns the currently signed-in principal id, or "" when
	// signed out. Notifications for other principals are dropped.
	PrincipalID func() string

	Logger *slog.Logger
}

// Watcher listens for role-change notifications and republishes the ones
// that concern the current principal.
type Watcher struct {
	pool        *pgxpool.Pool
	sink        ports.EventSink
	principalID func() string
	logger      *slog.Logger
}

// NewWatcher creates a role-change watcher with the given options.
func NewWatcher(opts WatcherOptions) (*Watcher, error) {
	if opts.Pool == nil {
		return nil, errors.New("database pool is required")
	}
	if opts.Sink == nil {
		return nil, errors.New("event sink is required")
	}
	if opts.PrincipalID == nil {
		return nil, errors.New("principal id source is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		pool:        opts.Pool,
		sink:        opts.Sink,
		principalID: opts.PrincipalID,
		logger:      logger,
	}, nil
}

// Run listens until the context is cancelled, reconnecting with backoff
// when the connection drops. Notifications that arrive while disconnected
// are lost; the session refreshes its role on the next sign-in or token
// refresh anyway.
func (w *Watcher) Run(ctx context.Context) error {
	backoff := initialBackoff
	for {
		err := w.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.logger.WarnContext(ctx, "role-change listener disconnected", "error", err, "retry_in", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (w *Watcher) listen(ctx context.Context) error {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+channelName); err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "listening for role changes", "channel", channelName)

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		w.dispatch(ctx, notification.Payload)
	}
}

// dispatch publishes a principal-updated event when the notification names
// the signed-in principal.
func (w *Watcher) dispatch(ctx context.Context, payload string) {
	current := w.principalID()
	if current == "" || payload != current {
		return
	}
	w.logger.DebugContext(ctx, "role change observed for current principal", "principal_id", payload)
	w.sink.Publish(domainauth.Event{Kind: domainauth.EventPrincipalUpdated})
}
