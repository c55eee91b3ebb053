package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pfrederiksen/telegrambis/internal/history"
)

// Sink receives emitted records
type Sink interface {
	// Emit publishes one record
	Emit(ctx context.Context, payload map[string]interface{}) error
}

// Printer writes each record as one JSON line
type Printer struct {
	mu     sync.Mutex
	out    io.Writer
	indent bool
}

// NewPrinter creates a Printer writing to out. With indent the JSON is
// pretty-printed, which is easier to read but no longer one line per record.
func NewPrinter(out io.Writer, indent bool) *Printer {
	return &Printer{out: out, indent: indent}
}

// Emit prints the record
func (p *Printer) Emit(_ context.Context, payload map[string]interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	encoder := json.NewEncoder(p.out)
	if p.indent {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(payload); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// Recorder forwards records to next and records each successful emission.
type Recorder struct {
	next  Sink
	store history.Store
	now   func() time.Time
}

// NewRecorder wraps next. A nil next only records.
func NewRecorder(next Sink, store history.Store) *Recorder {
	return &Recorder{next: next, store: store, now: time.Now}
}

// Emit forwards the record then records the event time
func (r *Recorder) Emit(ctx context.Context, payload map[string]interface{}) error {
	if r.next != nil {
		if err := r.next.Emit(ctx, payload); err != nil {
			return err
		}
	}
	if err := r.store.RecordEvent(ctx, r.now()); err != nil {
		return fmt.Errorf("recording event: %w", err)
	}
	return nil
}

// Func adapts a function to the Sink interface.
type Func func(ctx context.Context, payload map[string]interface{}) error

// Emit calls f
func (f Func) Emit(ctx context.Context, payload map[string]interface{}) error {
	return f(ctx, payload)
}
