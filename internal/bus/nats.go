package bus

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"batchgen/internal/batch"
	"batchgen/pkg/schema"
)

type Client struct{ nc *nats.Conn }

func Connect(url string, logger zerolog.Logger) (*Client, error) {
	nc, err := nats.Connect(url,
		nats.Name("batchgen-worker"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("bus: disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("bus: reconnected")
		}),
	)
	if err != nil {
		return nil, err
	}
	return &Client{nc: nc}, nil
}

func (c *Client) Close() {
	if c != nil && c.nc != nil {
		_ = c.nc.Drain()
	}
}

func (c *Client) PublishJSON(subject string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.nc.Publish(subject, b)
}

// Publisher is the part of Client the progress publisher needs.
type Publisher interface {
	PublishJSON(subject string, v any) error
}

// ProgressPublisher emits batch progress events on "<subject>.<job_id>".
type ProgressPublisher struct {
	pub     Publisher
	subject string
}

func NewProgressPublisher(pub Publisher, subject string) *ProgressPublisher {
	if subject == "" {
		subject = "batch.progress"
	}
	return &ProgressPublisher{pub: pub, subject: subject}
}

// Subject returns the subject an event for jobID is published on.
func (p *ProgressPublisher) Subject(jobID string) string {
	return p.subject + "." + jobID
}

func (p *ProgressPublisher) Report(ctx context.Context, ev schema.BatchProgressEvent) error {
	if p == nil || p.pub == nil {
		return errors.New("bus: publisher not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.pub.PublishJSON(p.Subject(ev.JobID), ev)
}

var _ batch.ProgressReporter = (*ProgressPublisher)(nil)
