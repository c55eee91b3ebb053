package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pfrederiksen/telegrambis/internal/action"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    Config
		wantErr bool
	}{
		{
			name: "pin with string booleans",
			opts: validPin().With(Options{KeyDebug: "true"}),
			want: Config{
				ChatID:        "@channel",
				MessageID:     "42",
				Type:          action.PinChatMessage,
				PollType:      "regular",
				Token:         "123:abc",
				Debug:         true,
				EmitEvents:    true,
				ReceivePeriod: 7,
			},
		},
		{
			name: "poll with native values",
			opts: validPoll().With(Options{
				KeyIsAnonymous: true,
				KeyEmitEvents:  false,
				KeyOptions:     []any{"red", "blue"},
				KeyPollType:    "quiz",
			}),
			want: Config{
				ChatID:        "@channel",
				Type:          action.SendPoll,
				Question:      "Lunch?",
				PollOptions:   []string{"red", "blue"},
				IsAnonymous:   true,
				PollType:      "quiz",
				Token:         "123:abc",
				ReceivePeriod: 7,
			},
		},
		{
			name: "invalid type is kept",
			opts: Options{KeyType: "bogus", KeyToken: "t"},
			want: Config{Type: action.Kind("bogus"), Token: "t"},
		},
		{
			name:    "invalid debug",
			opts:    validPin().With(Options{KeyDebug: "verbose"}),
			wantErr: true,
		},
		{
			name:    "poll options not JSON",
			opts:    validPoll().With(Options{KeyOptions: "a,b"}),
			wantErr: true,
		},
		{
			name:    "period not a number",
			opts:    validPin().With(Options{KeyReceivePeriod: "week"}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.opts)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalid) {
					t.Errorf("Parse() error = %v, want ErrInvalid", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{in: nil, want: ""},
		{in: "x", want: "x"},
		{in: true, want: "true"},
		{in: 7, want: "7"},
		{in: float64(-1001234567890), want: "-1001234567890"},
		{in: []any{"a", "b"}, want: `["a","b"]`},
	}
	for _, tt := range tests {
		if got := stringify(tt.in); got != tt.want {
			t.Errorf("stringify(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "agent.yaml")
	yamlData := []byte(`type: send_poll
chat_id: "-100200300"
question: Which day?
options:
  - Monday
  - Friday
is_anonymous: false
token: "123:abc"
`)
	if err := os.WriteFile(yamlPath, yamlData, 0644); err != nil {
		t.Fatal(err)
	}

	opts, err := Load(yamlPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if errs := Validate(opts); len(errs) != 0 {
		t.Fatalf("loaded options invalid: %v", messages(errs))
	}

	cfg, err := Parse(opts)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Monday", "Friday"}, cfg.PollOptions); diff != "" {
		t.Errorf("poll options mismatch (-want +got):\n%s", diff)
	}
	if cfg.PollType != "regular" {
		t.Errorf("PollType = %q, want default %q", cfg.PollType, "regular")
	}
	if !cfg.EmitEvents {
		t.Error("EmitEvents should default to true")
	}

	jsonPath := filepath.Join(dir, "agent.json")
	if err := os.WriteFile(jsonPath, []byte(`{"type":"stop_poll","chat_id":-100200300,"message_id":9,"token":"t"}`), 0644); err != nil {
		t.Fatal(err)
	}
	opts, err = Load(jsonPath)
	if err != nil {
		t.Fatalf("Load(json) error = %v", err)
	}
	if got := opts.String(KeyChatID); got != "-100200300" {
		t.Errorf("chat_id = %q, want %q", got, "-100200300")
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestParseAssignments(t *testing.T) {
	got, err := ParseAssignments([]string{"chat_id=@x", "question=a=b"})
	if err != nil {
		t.Fatalf("ParseAssignments() error = %v", err)
	}
	want := Options{"chat_id": "@x", "question": "a=b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseAssignments() mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseAssignments([]string{"novalue"}); err == nil {
		t.Error("ParseAssignments() expected error for missing '='")
	}
}
