package event

import (
	"bytes"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// Event represents one upstream record received by the agent
type Event struct {
	ID        string                 `json:"id"`
	Payload   map[string]interface{} `json:"payload"`
	CreatedAt time.Time              `json:"created_at"`
}

// GenerateID creates a deterministic ID for a payload.
// encoding/json sorts map keys, so equal payloads share an ID.
func GenerateID(payload map[string]interface{}) string {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte(fmt.Sprint(payload))
	}
	h := sha1.New()
	h.Write(data)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// New creates an Event with ID and CreatedAt populated
func New(payload map[string]interface{}) Event {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return Event{
		ID:        GenerateID(payload),
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}

// envelope is the wire form accepted by Read: either {"payload": {...}} with
// optional id/created_at and nothing else, or a bare object used as the payload.
type envelope struct {
	ID        string                 `json:"id"`
	Payload   map[string]interface{} `json:"payload"`
	CreatedAt time.Time              `json:"created_at"`
}

// Read parses events from r. It accepts a JSON array of events, a single event,
// or a stream of newline-delimited events.
func Read(r io.Reader) ([]Event, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var events []Event
	for {
		var raw json.RawMessage
		err := decoder.Decode(&raw)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}

		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			var items []json.RawMessage
			if err := json.Unmarshal(trimmed, &items); err != nil {
				return nil, fmt.Errorf("parsing event list: %w", err)
			}
			for i, item := range items {
				evt, err := decode(item)
				if err != nil {
					return nil, fmt.Errorf("event %d: %w", len(events)+i, err)
				}
				events = append(events, evt)
			}
			continue
		}

		evt, err := decode(trimmed)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", len(events), err)
		}
		events = append(events, evt)
	}

	return events, nil
}

// isEnvelope reports whether obj has no keys besides the envelope fields. An
// upstream event that merely contains a "payload" key is taken as is.
func isEnvelope(obj map[string]interface{}) bool {
	for key := range obj {
		switch key {
		case "id", "payload", "created_at":
		default:
			return false
		}
	}
	return true
}

func decode(data []byte) (Event, error) {
	var obj map[string]interface{}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&obj); err != nil {
		return Event{}, fmt.Errorf("parsing event: %w", err)
	}
	if obj == nil {
		return Event{}, errors.New("event must be a JSON object")
	}

	if payload, ok := obj["payload"].(map[string]interface{}); ok && isEnvelope(obj) {
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return Event{}, fmt.Errorf("parsing event envelope: %w", err)
		}
		evt := New(payload)
		if env.ID != "" {
			evt.ID = env.ID
		}
		if !env.CreatedAt.IsZero() {
			evt.CreatedAt = env.CreatedAt
		}
		return evt, nil
	}

	return New(obj), nil
}
