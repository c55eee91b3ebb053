package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Option keys
const (
	KeyChatID        = "chat_id"
	KeyMessageID     = "message_id"
	KeyType          = "type"
	KeyQuestion      = "question"
	KeyOptions       = "options"
	KeyIsAnonymous   = "is_anonymous"
	KeyPollType      = "poll_type"
	KeyToken         = "token"
	KeyDebug         = "debug"
	KeyEmitEvents    = "emit_events"
	KeyReceivePeriod = "expected_receive_period_in_days"
)

// Options is the raw option mapping as stored by the host.
type Options map[string]any

// DefaultOptions returns the options a freshly created agent starts with.
func DefaultOptions() Options {
	return Options{
		KeyChatID:        "",
		KeyMessageID:     "",
		KeyQuestion:      "",
		KeyOptions:       "",
		KeyIsAnonymous:   "false",
		KeyPollType:      "regular",
		KeyDebug:         "false",
		KeyEmitEvents:    "true",
		KeyReceivePeriod: "7",
		KeyToken:         "",
	}
}

// Clone returns a shallow copy of o.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// With returns a copy of o with overrides applied on top.
func (o Options) With(overrides Options) Options {
	out := o.Clone()
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// String returns the option rendered as a string, "" when missing.
func (o Options) String(key string) string {
	return stringify(o[key])
}

// Has reports whether key is set, even to an empty value.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// Raw is the option set with every value rendered as a string, before any
// type conversion.
type Raw struct {
	ChatID        string `mapstructure:"chat_id"`
	MessageID     string `mapstructure:"message_id"`
	Type          string `mapstructure:"type"`
	Question      string `mapstructure:"question"`
	PollOptions   string `mapstructure:"options"`
	IsAnonymous   string `mapstructure:"is_anonymous"`
	PollType      string `mapstructure:"poll_type"`
	Token         string `mapstructure:"token"`
	Debug         string `mapstructure:"debug"`
	EmitEvents    string `mapstructure:"emit_events"`
	ReceivePeriod string `mapstructure:"expected_receive_period_in_days"`
}

// Decode flattens o into a Raw. Unknown keys are ignored.
func Decode(o Options) (Raw, error) {
	flat := make(map[string]string, len(o))
	for k, v := range o {
		flat[k] = stringify(v)
	}

	var raw Raw
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &raw,
		TagName: "mapstructure",
	})
	if err != nil {
		return Raw{}, fmt.Errorf("creating decoder: %w", err)
	}
	if err := decoder.Decode(flat); err != nil {
		return Raw{}, fmt.Errorf("decoding options: %w", err)
	}
	return raw, nil
}

// stringify renders a YAML/JSON scalar the way the host form would store it.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any, []string, map[string]any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	default:
		return fmt.Sprint(val)
	}
}

// Load reads options from a YAML or JSON file (by extension) and layers them
// over DefaultOptions.
func Load(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading options: %w", err)
	}

	loaded := Options{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &loaded); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
		}
	}

	return DefaultOptions().With(loaded), nil
}

// ParseAssignments turns "key=value" pairs into Options.
func ParseAssignments(pairs []string) (Options, error) {
	out := Options{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q (want key=value)", pair)
		}
		out[key] = value
	}
	return out, nil
}
