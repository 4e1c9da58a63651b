package ingest

import (
	"context"
	"errors"

	"github.com/racekit/race-telemetry-go/log"
	"github.com/racekit/race-telemetry-go/pkg/model"
	"github.com/racekit/race-telemetry-go/pkg/source"
	"github.com/racekit/race-telemetry-go/pkg/telemetry"
)

type runner struct {
	sinks     []chan<- *model.Frame
	logFrames bool
}

type Option func(r *runner)

// WithSinks registers channels that receive every ingested frame. A stalled
// sink is skipped, never blocking ingestion.
func WithSinks(sinks ...chan<- *model.Frame) Option {
	return func(r *runner) { r.sinks = append(r.sinks, sinks...) }
}

// WithFrameLogging enables debug logging of every raw frame payload.
func WithFrameLogging(enabled bool) Option {
	return func(r *runner) { r.logFrames = enabled }
}

// Run pumps frames from src into the cache until the context is canceled or
// the source disconnects. Malformed frames are logged and dropped; the loop
// keeps going. A disconnect ends ingestion without an error: the cache keeps
// serving its last snapshot, which will flip to stale on its own.
func Run(ctx context.Context, src source.Source, cache *telemetry.Cache, opts ...Option) error {
	r := &runner{}
	for _, opt := range opts {
		opt(r)
	}
	for {
		frame, err := src.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				log.Info("ingestion stopped")
				return nil
			case errors.Is(err, telemetry.ErrMalformedFrame):
				log.Warn("dropping malformed frame", log.ErrorField(err))
				continue
			case errors.Is(err, telemetry.ErrSourceDisconnected):
				log.Warn("telemetry source disconnected, serving last snapshot",
					log.ErrorField(err))
				return nil
			default:
				log.Error("telemetry source lost", log.ErrorField(err))
				return err
			}
		}
		if r.logFrames {
			log.Debug("frame", log.Any("payload", frame))
		}
		if err := cache.Ingest(frame); err != nil {
			log.Warn("dropping frame", log.ErrorField(err))
			continue
		}
		for _, sink := range r.sinks {
			select {
			case sink <- frame:
			default: // a stalled sink must not block ingestion
			}
		}
	}
}
