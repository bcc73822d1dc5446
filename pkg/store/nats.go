package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is the subject prefix run summaries are published under.
const DefaultSubject = "propsim.runs"

// Publisher is the part of a NATS connection the sink needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes a JSON Summary of each run to
// <prefix>.<configuration>.
type NATSSink struct {
	pub    Publisher
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// NewNATSSink publishes through pub. An empty prefix means DefaultSubject.
func NewNATSSink(pub Publisher, prefix string, logger *slog.Logger) *NATSSink {
	if prefix == "" {
		prefix = DefaultSubject
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &NATSSink{pub: pub, prefix: prefix, logger: logger}
	if c, ok := pub.(*nats.Conn); ok {
		s.conn = c
	}
	return s
}

// ConnectNATS dials the server at url and returns a sink over the connection.
func ConnectNATS(url, prefix string, logger *slog.Logger) (*NATSSink, error) {
	conn, err := nats.Connect(url,
		nats.Name("propsim"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(10),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	return NewNATSSink(conn, prefix, logger), nil
}

// Subject returns the subject runs of configuration are published to.
// Characters NATS treats specially are replaced so a configuration name
// always maps to a single token.
func (s *NATSSink) Subject(configuration string) string {
	token := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '.', '*', '>', '\t':
			return '_'
		}
		return r
	}, configuration)
	return s.prefix + "." + token
}

// Save publishes the run summary.
func (s *NATSSink) Save(ctx context.Context, run Run) error {
	if err := check(run); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(Summarize(run))
	if err != nil {
		return fmt.Errorf("encoding run summary: %w", err)
	}
	subject := s.Subject(run.Result.Configuration())
	if err := s.pub.Publish(subject, payload); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	s.logger.Debug("run published", "subject", subject, "run_id", run.ID)
	return nil
}

// Close drains the connection when the sink owns one.
func (s *NATSSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Drain()
}
