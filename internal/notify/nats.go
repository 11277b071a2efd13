package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix prefixes every published subject.
const DefaultSubjectPrefix = "bitacora"

// NATSNotifier publishes notifications as JSON messages on NATS subjects
// named "<prefix>.<subject>".
type NATSNotifier struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSNotifier connects to the NATS server at url.
func NewNATSNotifier(url, prefix string) (*NATSNotifier, error) {
	nc, err := nats.Connect(url,
		nats.Name("bitacora"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	slog.Info("nats connected", "url", nc.ConnectedUrl(), "subject_prefix", prefix)

	return &NATSNotifier{nc: nc, prefix: prefix}, nil
}

// Subject returns the full NATS subject for a notification subject.
func (n *NATSNotifier) Subject(subject string) string {
	return n.prefix + "." + subject
}

// Notify publishes the notification. NATS publishing does not take a context,
// so cancellation is checked before publishing.
func (n *NATSNotifier) Notify(ctx context.Context, msg Notification) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if err := n.nc.Publish(n.Subject(msg.Subject), data); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (n *NATSNotifier) Close() error {
	return n.nc.Drain()
}
