package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pfrederiksen/telegrambis/internal/action"
)

// Config is the typed form of Options used by the dispatcher.
type Config struct {
	ChatID    string
	MessageID string
	// Type is kept as configured; it may be invalid after interpolation and
	// the dispatcher decides what to do with it.
	Type action.Kind

	Question    string
	PollOptions []string
	IsAnonymous bool
	PollType    string

	Token         string
	Debug         bool
	EmitEvents    bool
	ReceivePeriod int // days
}

// Parse converts o into a Config. Empty booleans read as false. Poll fields are
// only converted for send_poll.
func Parse(o Options) (Config, error) {
	raw, err := Decode(o)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ChatID:    raw.ChatID,
		MessageID: raw.MessageID,
		Type:      action.Kind(strings.TrimSpace(raw.Type)),
		Question:  raw.Question,
		PollType:  raw.PollType,
		Token:     strings.TrimSpace(raw.Token),
	}

	if cfg.Debug, err = parseBool(KeyDebug, raw.Debug); err != nil {
		return Config{}, err
	}
	if cfg.EmitEvents, err = parseBool(KeyEmitEvents, raw.EmitEvents); err != nil {
		return Config{}, err
	}

	if period := strings.TrimSpace(raw.ReceivePeriod); period != "" {
		days, err := strconv.Atoi(period)
		if err != nil {
			return Config{}, &ValidationError{
				Field:   KeyReceivePeriod,
				Message: fmt.Sprintf("%s must be an integer, got %q", KeyReceivePeriod, period),
			}
		}
		cfg.ReceivePeriod = days
	}

	if cfg.Type.IsPoll() {
		if cfg.IsAnonymous, err = parseBool(KeyIsAnonymous, raw.IsAnonymous); err != nil {
			return Config{}, err
		}
		if cfg.PollOptions, err = parsePollOptions(raw.PollOptions); err != nil {
			return Config{}, &ValidationError{
				Field:   KeyOptions,
				Message: fmt.Sprintf("parsing options as a JSON list: %v", err),
			}
		}
	}

	return cfg, nil
}

func parseBool(key, value string) (bool, error) {
	if strings.TrimSpace(value) == "" {
		return false, nil
	}
	b, ok := boolify(value)
	if !ok {
		return false, &ValidationError{
			Field:   key,
			Message: fmt.Sprintf("%s must be true or false, got %q", key, value),
		}
	}
	return b, nil
}
