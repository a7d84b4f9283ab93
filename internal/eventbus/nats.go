package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"
)

// Publisher is the subset of *nats.Conn used by the bridge.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSBridge forwards every event on the bus to NATS as JSON on
// "<prefix>.<event type>".
type NATSBridge struct {
	bus    *Bus
	conn   Publisher
	prefix string
}

func NewNATSBridge(bus *Bus, conn Publisher, prefix string) *NATSBridge {
	return &NATSBridge{bus: bus, conn: conn, prefix: strings.TrimSuffix(prefix, ".")}
}

func ConnectNATS(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("taskdash-server"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return conn, nil
}

func (b *NATSBridge) Subject(t Type) string {
	return b.prefix + "." + string(t)
}

// Run blocks until ctx is done.
func (b *NATSBridge) Run(ctx context.Context) error {
	sub := b.bus.Subscribe(256)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-sub.C:
			if !ok {
				return nil
			}
			data, err := json.Marshal(event)
			if err != nil {
				slog.Error("failed to marshal event for nats", "event_id", event.ID, "error", err)
				continue
			}
			if err := b.conn.Publish(b.Subject(event.Type), data); err != nil {
				slog.Warn("failed to publish event to nats", "event_id", event.ID, "error", err)
			}
		}
	}
}
