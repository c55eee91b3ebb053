package agent

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/telegrambis/internal/config"
	"github.com/pfrederiksen/telegrambis/internal/event"
	"github.com/pfrederiksen/telegrambis/internal/history"
	"github.com/pfrederiksen/telegrambis/internal/interpolate"
	"github.com/pfrederiksen/telegrambis/internal/logger"
	"github.com/pfrederiksen/telegrambis/internal/metrics"
	"github.com/pfrederiksen/telegrambis/internal/sink"
	"github.com/pfrederiksen/telegrambis/internal/telegram"
)

// Plugin is the contract between the host and an agent.
type Plugin interface {
	// Validate reports every problem with opts; nil means the agent can be activated.
	Validate(opts config.Options) []error
	// Check runs one scheduled tick.
	Check(ctx context.Context) error
	// Receive handles upstream events one at a time, in order.
	Receive(ctx context.Context, events []event.Event) error
	// Describe returns the static metadata the host shows for the agent.
	Describe() Metadata
	// Working is the health predicate.
	Working(ctx context.Context) (bool, error)
}

var _ Plugin = (*Agent)(nil)

// LogSink is where the agent writes its log stream. Always entries bypass
// any level filtering.
type LogSink interface {
	Info(message string, fields logger.Fields)
	Error(message string, fields logger.Fields, err error)
	Always(message string, fields logger.Fields)
}

// InterpolateFunc renders option placeholders against an event. Check passes a
// zero Event.
type InterpolateFunc func(opts config.Options, evt event.Event) (config.Options, error)

// Agent performs the configured Telegram action.
type Agent struct {
	name        string
	options     config.Options
	interpolate InterpolateFunc
	log         LogSink
	events      sink.Sink
	history     history.Store
	metrics     *metrics.Metrics
	clientOpts  []telegram.Option
	now         func() time.Time
}

// Option configures an Agent.
type Option func(*Agent)

// WithName sets the agent name used in logs and metadata.
func WithName(name string) Option {
	return func(a *Agent) { a.name = name }
}

// WithInterpolator replaces the default {{ path }} interpolation.
func WithInterpolator(fn InterpolateFunc) Option {
	return func(a *Agent) { a.interpolate = fn }
}

// WithLogger sets the log sink.
func WithLogger(log LogSink) Option {
	return func(a *Agent) { a.log = log }
}

// WithSink sets where emitted records go.
func WithSink(s sink.Sink) Option {
	return func(a *Agent) { a.events = s }
}

// WithHistory sets the history store; the default is in-memory.
func WithHistory(store history.Store) Option {
	return func(a *Agent) { a.history = store }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Agent) { a.metrics = m }
}

// WithTelegramOptions passes options to every Bot API client the agent builds.
func WithTelegramOptions(opts ...telegram.Option) Option {
	return func(a *Agent) { a.clientOpts = append(a.clientOpts, opts...) }
}

// New creates an agent for the given options. Options are not validated here;
// call Validate first.
func New(opts config.Options, options ...Option) *Agent {
	a := &Agent{
		name:        "telegrambis",
		options:     opts.Clone(),
		interpolate: interpolate.Options,
		log:         logger.Default(),
		history:     history.NewMemoryStore(),
		now:         time.Now,
	}
	for _, opt := range options {
		opt(a)
	}
	a.events = sink.NewRecorder(a.events, a.history)
	return a
}

// Validate checks opts.
func (a *Agent) Validate(opts config.Options) []error {
	return config.Validate(opts)
}

// Check dispatches with the statically interpolated options.
func (a *Agent) Check(ctx context.Context) error {
	return a.invoke(ctx, "check", event.Event{})
}

// Receive dispatches once per event. A failing event is logged and recorded
// and does not stop the following ones; all failures are returned joined.
func (a *Agent) Receive(ctx context.Context, events []event.Event) error {
	var errs []error
	for _, evt := range events {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		a.log.Info("received event", logger.Fields{
			"agent":    a.name,
			"event_id": evt.ID,
			"payload":  evt.Payload,
		})
		if err := a.invoke(ctx, "receive", evt); err != nil {
			errs = append(errs, fmt.Errorf("event %s: %w", evt.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Working reports whether the agent emitted an event within the expected
// receive period and has no recent errors.
func (a *Agent) Working(ctx context.Context) (bool, error) {
	state, err := a.history.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("loading history: %w", err)
	}
	days, _ := strconv.Atoi(strings.TrimSpace(a.options.String(config.KeyReceivePeriod)))
	return Healthy(state, days, a.now()), nil
}

// invoke is one invocation: interpolate, dispatch, and on failure log and
// record the error.
func (a *Agent) invoke(ctx context.Context, trigger string, evt event.Event) error {
	opts, err := a.interpolate(a.options, evt)
	if err == nil {
		err = a.dispatch(ctx, opts)
	}
	if err == nil {
		return nil
	}

	a.log.Error("invocation failed", logger.Fields{
		"agent":   a.name,
		"trigger": trigger,
	}, err)
	if recErr := a.history.RecordError(ctx, a.now(), err.Error()); recErr != nil {
		return errors.Join(err, fmt.Errorf("recording error: %w", recErr))
	}
	return err
}
