// Package bus publishes run reports to NATS with OpenTelemetry trace
// propagation in message headers.
package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"

	"ThreatMonitor/internal/domain"
	"ThreatMonitor/internal/ports"
)

// headerCarrier adapts nats.Msg headers for OTel TextMapCarrier.
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// Publisher is a ReportSink that emits every report on one subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

var _ ports.ReportSink = (*Publisher)(nil)

// Connect dials NATS and returns a publisher for subject.
func Connect(url, subject string) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("threatmonitor"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return NewPublisher(nc, subject), nil
}

// NewPublisher wraps an existing connection.
func NewPublisher(nc *nats.Conn, subject string) *Publisher {
	return &Publisher{nc: nc, subject: subject}
}

// Consume publishes the report as JSON.
func (p *Publisher) Consume(ctx context.Context, report domain.RunReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	msg := &nats.Msg{Subject: p.subject, Data: data}
	msg.Header = nats.Header{}
	msg.Header.Set("Threat-Level", string(report.ThreatLevel))
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))

	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}

// Subscribe decodes reports published on subject. Malformed messages are dropped.
func Subscribe(nc *nats.Conn, subject string, handler func(context.Context, domain.RunReport)) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		var report domain.RunReport
		if err := json.Unmarshal(msg.Data, &report); err != nil {
			return
		}
		ctx := otel.GetTextMapPropagator().Extract(context.Background(), (*headerCarrier)(msg))
		handler(ctx, report)
	})
}

// Close drains the connection.
func (p *Publisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
