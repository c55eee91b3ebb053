package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pfrederiksen/telegrambis/internal/action"
)

// ErrInvalid matches every error produced by Validate and Parse.
var ErrInvalid = errors.New("invalid options")

// ValidationError is a single human-readable problem with the options.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrInvalid) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func required(field string) error {
	return &ValidationError{Field: field, Message: field + " is a required field"}
}

// Validate checks o and returns every problem found. It never panics and
// returns nil when the options are usable.
func Validate(o Options) []error {
	raw, err := Decode(o)
	if err != nil {
		return []error{err}
	}

	var errs []error
	kind, err := action.ParseKind(strings.TrimSpace(raw.Type))
	if err != nil {
		errs = append(errs, &ValidationError{
			Field:   KeyType,
			Message: "type has invalid value: should be " + action.ValidValues(),
		})
	}

	if kind.Valid() && !present(raw.ChatID) {
		errs = append(errs, required(KeyChatID))
	}

	if kind.NeedsMessageID() && !present(raw.MessageID) {
		errs = append(errs, required(KeyMessageID))
	}

	if kind.IsPoll() {
		errs = append(errs, validatePoll(raw)...)
	}

	for _, key := range []string{KeyDebug, KeyEmitEvents} {
		if !o.Has(key) {
			continue
		}
		if _, ok := boolify(o.String(key)); !ok {
			errs = append(errs, &ValidationError{
				Field:   key,
				Message: fmt.Sprintf("if provided, %s must be true or false", key),
			})
		}
	}

	if !present(raw.Token) {
		errs = append(errs, required(KeyToken))
	}

	if days, err := strconv.Atoi(strings.TrimSpace(raw.ReceivePeriod)); err != nil || days <= 0 {
		errs = append(errs, &ValidationError{
			Field:   KeyReceivePeriod,
			Message: "Please provide 'expected_receive_period_in_days' to indicate how many days can pass before this Agent is considered to be not working",
		})
	}

	return errs
}

func validatePoll(raw Raw) []error {
	var errs []error

	if !present(raw.Question) {
		errs = append(errs, required(KeyQuestion))
	}

	if !present(raw.PollOptions) {
		errs = append(errs, required(KeyOptions))
	} else if !templated(raw.PollOptions) {
		if _, err := parsePollOptions(raw.PollOptions); err != nil {
			errs = append(errs, &ValidationError{
				Field:   KeyOptions,
				Message: "options must be a JSON list of strings",
			})
		}
	}

	if !present(raw.IsAnonymous) {
		errs = append(errs, required(KeyIsAnonymous))
	} else if _, ok := boolify(raw.IsAnonymous); !ok && !templated(raw.IsAnonymous) {
		errs = append(errs, &ValidationError{
			Field:   KeyIsAnonymous,
			Message: "if provided, is_anonymous must be true or false",
		})
	}

	if !present(raw.PollType) {
		errs = append(errs, required(KeyPollType))
	}

	return errs
}

// present is true for a non-blank value.
func present(s string) bool {
	return strings.TrimSpace(s) != ""
}

// templated reports whether s still holds an interpolation placeholder, in
// which case its final value is only known at dispatch time.
func templated(s string) bool {
	return strings.Contains(s, "{{")
}

// boolify accepts exactly "true" and "false".
func boolify(s string) (bool, bool) {
	switch strings.TrimSpace(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}

func parsePollOptions(s string) ([]string, error) {
	var opts []string
	if err := json.Unmarshal([]byte(s), &opts); err != nil {
		return nil, err
	}
	return opts, nil
}
