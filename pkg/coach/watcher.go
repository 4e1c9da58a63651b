package coach

import (
	"context"
	"fmt"

	"github.com/racekit/race-telemetry-go/log"
	"github.com/racekit/race-telemetry-go/pkg/model"
)

// Watcher reacts to session events in the frame stream: flag changes and
// the car leaving the track. Each event is turned into one piece of advice
// so the driver is not spammed while the condition persists.
type Watcher struct {
	advisor  Advisor
	lastFlag string
	offTrack bool
}

func NewWatcher(advisor Advisor) *Watcher {
	return &Watcher{advisor: advisor}
}

// Run consumes frames until the channel closes or the context is canceled.
func (w *Watcher) Run(ctx context.Context, frames <-chan *model.Frame) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			w.observe(ctx, frame)
		}
	}
}

func (w *Watcher) observe(ctx context.Context, frame *model.Frame) {
	if frame.FlagState != w.lastFlag {
		if w.lastFlag != "" {
			w.emit(ctx, frame, fmt.Sprintf("Flag changed to %s", frame.FlagState), CategorySafety)
		}
		w.lastFlag = frame.FlagState
	}

	if !frame.OnTrack && !w.offTrack {
		w.emit(ctx, frame, "Car went off track", CategorySafety)
	}
	w.offTrack = !frame.OnTrack
}

func (w *Watcher) emit(ctx context.Context, frame *model.Frame, event, focus string) {
	advice, err := w.advisor.Advise(ctx, Situation{Frame: frame, FocusArea: focus})
	if err != nil {
		log.Warn("advisor failed", log.String("event", event), log.ErrorField(err))
		return
	}
	log.Info("session event",
		log.String("event", event),
		log.String("advice", advice.Advice),
		log.String("priority", advice.Priority))
}
