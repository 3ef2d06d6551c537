package recommend

import (
	"context"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/peergram/go-suggest/service/logger"
	"github.com/peergram/go-suggest/service/persist"
	"github.com/sirupsen/logrus"
)

const telemetryWorkers = 4

// EventAction describes what a user did with a suggestion.
type EventAction string

const (
	ActionViewed    EventAction = "viewed"
	ActionFollowed  EventAction = "followed"
	ActionDismissed EventAction = "dismissed"
)

// SuggestionEvent is one telemetry record about a suggestion shown to a user.
type SuggestionEvent struct {
	UserID      persist.DBID `json:"user_id"`
	CandidateID persist.DBID `json:"candidate_id"`
	Action      EventAction  `json:"action"`
	Signal      Signal       `json:"signal"`
	CreatedAt   time.Time    `json:"created_at"`
}

// EventSink receives suggestion telemetry. Sinks are best-effort: a failing
// sink never affects suggestion generation.
type EventSink interface {
	Record(ctx context.Context, event SuggestionEvent) error
}

// logEventSink is the default sink; it writes events to the log for the
// analytics pipeline to scrape.
type logEventSink struct{}

func (logEventSink) Record(ctx context.Context, event SuggestionEvent) error {
	logger.For(ctx).WithFields(logrus.Fields{
		"userID":      event.UserID,
		"candidateID": event.CandidateID,
		"action":      event.Action,
		"signal":      event.Signal,
	}).Info("suggestion event")
	return nil
}

// eventRecorder dispatches events to the sink asynchronously so that
// recording never blocks or fails a caller.
type eventRecorder struct {
	sink EventSink
	wp   *workerpool.WorkerPool
}

func newEventRecorder(sink EventSink) *eventRecorder {
	return &eventRecorder{
		sink: sink,
		wp:   workerpool.New(telemetryWorkers),
	}
}

func (r *eventRecorder) record(event SuggestionEvent) {
	r.wp.Submit(func() {
		defer func() {
			if p := recover(); p != nil {
				logger.For(nil).Errorf("recovered while recording suggestion event: %v", p)
			}
		}()
		if err := r.sink.Record(context.Background(), event); err != nil {
			logger.For(nil).WithError(err).Error("failed to record suggestion event")
		}
	})
}

// stop drains pending events and shuts the recorder down.
func (r *eventRecorder) stop() {
	r.wp.StopWait()
}
