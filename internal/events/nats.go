package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "todoshare"

type conn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// NATS publishes events as JSON messages.
type NATS struct {
	nc     conn
	prefix string
}

// Connect dials the NATS server at url.
func Connect(url, prefix string) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("todoshare"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return newNATS(nc, prefix), nil
}

func newNATS(nc conn, prefix string) *NATS {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATS{nc: nc, prefix: prefix}
}

// Subject returns the subject e is published on.
func (p *NATS) Subject(t Type) string {
	return p.prefix + "." + string(t)
}

// Publish implements Publisher.
func (p *NATS) Publish(_ context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := p.nc.Publish(p.Subject(e.Type), data); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATS) Close() error {
	return p.nc.Drain()
}
