package sink

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/telegrambis/internal/history"
)

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	records := []map[string]interface{}{
		{"ok": true, "result": true, "action": "pinChatMessage"},
		{"ok": false, "description": "Bad Request"},
	}
	for _, r := range records {
		if err := p.Emit(context.Background(), r); err != nil {
			t.Fatalf("Emit() error = %v", err)
		}
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if lines[0] != `{"action":"pinChatMessage","ok":true,"result":true}` {
		t.Errorf("line 0 = %s", lines[0])
	}
}

func TestPrinter_Indent(t *testing.T) {
	var buf bytes.Buffer
	if err := NewPrinter(&buf, true).Emit(context.Background(), map[string]interface{}{"ok": true}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "{\n  \"ok\": true\n}\n" {
		t.Errorf("indented output = %q", buf.String())
	}
}

func TestRecorder(t *testing.T) {
	store := history.NewMemoryStore()
	var got []map[string]interface{}
	next := Func(func(_ context.Context, p map[string]interface{}) error {
		got = append(got, p)
		return nil
	})

	r := NewRecorder(next, store)
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	r.now = func() time.Time { return at }

	if err := r.Emit(context.Background(), map[string]interface{}{"ok": true}); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	if len(got) != 1 {
		t.Errorf("next received %d records, want 1", len(got))
	}
	state, _ := store.Load(context.Background())
	if !state.LastEventAt.Equal(at) {
		t.Errorf("LastEventAt = %v, want %v", state.LastEventAt, at)
	}
}

func TestRecorder_NextFails(t *testing.T) {
	store := history.NewMemoryStore()
	boom := errors.New("sink down")
	r := NewRecorder(Func(func(context.Context, map[string]interface{}) error { return boom }), store)

	if err := r.Emit(context.Background(), map[string]interface{}{}); !errors.Is(err, boom) {
		t.Errorf("Emit() error = %v, want %v", err, boom)
	}
	state, _ := store.Load(context.Background())
	if !state.LastEventAt.IsZero() {
		t.Error("failed emission should not be recorded")
	}
}

func TestRecorder_NilNext(t *testing.T) {
	store := history.NewMemoryStore()
	if err := NewRecorder(nil, store).Emit(context.Background(), map[string]interface{}{}); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	state, _ := store.Load(context.Background())
	if state.LastEventAt.IsZero() {
		t.Error("event should be recorded")
	}
}
