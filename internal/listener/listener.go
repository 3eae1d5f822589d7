package listener

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/elskow/buildevents/internal/config"
	"github.com/elskow/buildevents/internal/metrics"
	"github.com/elskow/buildevents/internal/pipeline/types"
	"github.com/elskow/buildevents/internal/trace"
)

// Listener records step lifecycle events of one build session as offsets
// from the moment it was created.
type Listener struct {
	store     *metrics.MetricStore
	fs        afero.Fs
	config    *config.ReportConfig
	logger    *zap.Logger
	clock     func() time.Time
	start     time.Time
	sessionID string
}

type Option func(*Listener)

func WithClock(clock func() time.Time) Option {
	return func(l *Listener) {
		l.clock = clock
	}
}

func WithSessionID(id string) Option {
	return func(l *Listener) {
		l.sessionID = id
	}
}

func New(
	store *metrics.MetricStore,
	fs afero.Fs,
	config *config.ReportConfig,
	logger *zap.Logger,
	opts ...Option,
) *Listener {
	l := &Listener{
		store:  store,
		fs:     fs,
		config: config,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.sessionID == "" {
		l.sessionID = uuid.NewString()
	}
	l.logger = logger.With(zap.String("session_id", l.sessionID))
	l.start = l.clock()
	return l
}

func (l *Listener) SessionID() string {
	return l.sessionID
}

// Millis returns the milliseconds elapsed since the session started.
func (l *Listener) Millis() int64 {
	return l.clock().Sub(l.start).Milliseconds()
}

func (l *Listener) StepStarted(ev types.Event) {
	l.store.RecordStart(metrics.KeyFromEvent(ev), ev.WorkerID, l.Millis())
}

func (l *Listener) StepSucceeded(ev types.Event) {
	l.stepEnded(ev, metrics.OutcomeSucceeded)
}

func (l *Listener) StepFailed(ev types.Event) {
	l.stepEnded(ev, metrics.OutcomeFailed)
}

func (l *Listener) StepSkipped(ev types.Event) {
	l.stepEnded(ev, metrics.OutcomeSkipped)
}

func (l *Listener) stepEnded(ev types.Event, outcome metrics.Outcome) {
	l.store.RecordOutcome(metrics.KeyFromEvent(ev), l.Millis(), outcome)
}

// SessionEnded writes the report and, when configured, the trace. It is
// meant to run once, after every worker has stopped emitting events.
func (l *Listener) SessionEnded() error {
	var errs []error

	if err := l.store.Persist(l.config.Output); err != nil {
		errs = append(errs, fmt.Errorf("failed to persist build events: %w", err))
	} else {
		l.logger.Info("build events report written",
			zap.String("path", l.config.Output),
			zap.Object("session", l.summary()))
	}

	if l.config.TraceOutput != "" {
		if err := trace.Write(l.fs, l.config.TraceOutput, l.store.Snapshot()); err != nil {
			errs = append(errs, err)
		} else {
			l.logger.Info("build trace written", zap.String("path", l.config.TraceOutput))
		}
	}

	return errors.Join(errs...)
}

func (l *Listener) summary() zapcore.ObjectMarshaler {
	records := l.store.Snapshot()
	return zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		outcomes := make(map[metrics.Outcome]int)
		for _, r := range records {
			outcomes[r.Outcome]++
		}
		enc.AddInt("records", len(records))
		enc.AddInt("unfinished", outcomes[metrics.OutcomeStarted])
		enc.AddInt("failed", outcomes[metrics.OutcomeFailed])
		enc.AddInt64("elapsed_ms", l.Millis())
		return nil
	})
}
