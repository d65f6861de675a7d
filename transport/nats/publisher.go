package nats

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/memorygame/game/service"
)

// SubjectPrefix is the first token of every update subject
const SubjectPrefix = "memory"

// Connection is the part of *nats.Conn the publisher uses
type Connection interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// Publisher implements service.EventSink over NATS
type Publisher struct {
	conn Connection
}

// Connect dials the broker the same way every service in this system does
func Connect(url, name string) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(10 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(5),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	return nc, nil
}

// NewPublisher wraps an established connection
func NewPublisher(conn Connection) *Publisher {
	return &Publisher{conn: conn}
}

// Subject returns the update subject for a session
func Subject(sessionID string) string {
	// Subject tokens cannot contain dots or whitespace
	token := strings.Map(func(r rune) rune {
		switch r {
		case '.', ' ', '\t', '*', '>':
			return '_'
		}
		return r
	}, sessionID)
	return SubjectPrefix + "." + token + ".update"
}

// Publish sends the update as JSON. Failures are logged, never returned, so
// a broker outage cannot fail a game operation.
func (p *Publisher) Publish(update *service.Update) {
	if p == nil || p.conn == nil || update == nil {
		return
	}
	data, err := json.Marshal(update)
	if err != nil {
		log.Error().Err(err).Str("session", update.SessionID).Msg("failed to encode nats update")
		return
	}
	if err := p.conn.Publish(Subject(update.SessionID), data); err != nil {
		log.Warn().Err(err).Str("session", update.SessionID).Msg("failed to publish nats update")
	}
}

// Close drains pending messages and closes the connection
func (p *Publisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
