// Package interpolate substitutes event fields into agent options.
//
// Placeholders have the form {{ path }} where path is a dot-separated walk into
// the event payload ("message.message_id"). Missing paths render as the empty
// string. Only string option values are rendered; other values pass through.
package interpolate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pfrederiksen/telegrambis/internal/config"
	"github.com/pfrederiksen/telegrambis/internal/event"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_\-]+(?:\.[A-Za-z0-9_\-]+)*)\s*\}\}`)

// Options renders every string value of opts against evt's payload. The input
// is not modified.
func Options(opts config.Options, evt event.Event) (config.Options, error) {
	out := make(config.Options, len(opts))
	for key, value := range opts {
		s, ok := value.(string)
		if !ok {
			out[key] = value
			continue
		}
		rendered, err := String(s, evt.Payload)
		if err != nil {
			return nil, fmt.Errorf("interpolating %s: %w", key, err)
		}
		out[key] = rendered
	}
	return out, nil
}

// String renders the placeholders in s against payload.
func String(s string, payload map[string]interface{}) (string, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}

	var renderErr error
	rendered := placeholder.ReplaceAllStringFunc(s, func(match string) string {
		path := placeholder.FindStringSubmatch(match)[1]
		text, err := format(lookup(payload, strings.Split(path, ".")))
		if err != nil && renderErr == nil {
			renderErr = fmt.Errorf("rendering %s: %w", path, err)
		}
		return text
	})
	if renderErr != nil {
		return "", renderErr
	}
	return rendered, nil
}

func lookup(value interface{}, path []string) interface{} {
	for _, part := range path {
		switch v := value.(type) {
		case map[string]interface{}:
			value = v[part]
		case []interface{}:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(v) {
				return nil
			}
			value = v[i]
		default:
			return nil
		}
	}
	return value
}

func format(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return fmt.Sprint(v), nil
	}
}
