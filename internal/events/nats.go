package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSPublisher mirrors domain events onto a NATS subject tree so external
// consumers (a real kitchen display, analytics) can follow the order flow.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

func NewNATSPublisher(url, prefix string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if prefix == "" {
		prefix = "tableside"
	}
	return &NATSPublisher{conn: conn, prefix: prefix}, nil
}

// PublishJSON sends the payload on "<prefix>.<eventType>".
func (p *NATSPublisher) PublishJSON(eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.prefix+"."+eventType, data)
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// Fanout publishes to every wrapped publisher, returning the first error.
type Fanout []interface {
	PublishJSON(eventType string, payload interface{}) error
}

func (f Fanout) PublishJSON(eventType string, payload interface{}) error {
	var first error
	for _, p := range f {
		if err := p.PublishJSON(eventType, payload); err != nil && first == nil {
			first = err
		}
	}
	return first
}
