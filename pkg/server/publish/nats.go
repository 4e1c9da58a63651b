package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/racekit/race-telemetry-go/log"
	"github.com/racekit/race-telemetry-go/pkg/telemetry"
)

// subjects the publisher emits on
const (
	SubjectTelemetry = "racetel.telemetry"
	SubjectSpots     = "racetel.spots"
	SubjectSession   = "racetel.session"
)

const DefaultInterval = time.Second

// NatsPublisher pushes snapshots onto a NATS broker so downstream
// consumers (dashboards, recorders) get them without polling the API.
type NatsPublisher struct {
	conn     *nats.Conn
	facade   *telemetry.Facade
	interval time.Duration
}

type Option func(p *NatsPublisher)

func WithInterval(d time.Duration) Option {
	return func(p *NatsPublisher) {
		if d > 0 {
			p.interval = d
		}
	}
}

func NewNatsPublisher(url string, facade *telemetry.Facade, opts ...Option) (*NatsPublisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}
	p := &NatsPublisher{
		conn:     conn,
		facade:   facade,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run publishes on the configured cadence until the context is canceled.
func (p *NatsPublisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.publishOnce()
		}
	}
}

func (p *NatsPublisher) publishOnce() {
	snap, err := p.facade.CurrentTelemetry()
	if err != nil {
		return // nothing to publish yet
	}
	p.publish(SubjectTelemetry, map[string]any{
		"frame":     snap.Frame,
		"analytics": snap.Analytics,
		"stale":     snap.Stale,
	})
	p.publish(SubjectSpots, snap.Spots)
	p.publish(SubjectSession, snap.Session)
}

func (p *NatsPublisher) publish(subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Warn("marshaling nats payload",
			log.String("subject", subject), log.ErrorField(err))
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		log.Warn("publishing to nats",
			log.String("subject", subject), log.ErrorField(err))
	}
}

func (p *NatsPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		log.Warn("draining nats connection", log.ErrorField(err))
	}
}
