package agent

import (
	"github.com/pfrederiksen/telegrambis/internal/action"
	"github.com/pfrederiksen/telegrambis/internal/config"
)

// Field types shown by the host form.
const (
	FieldString  = "string"
	FieldBoolean = "boolean"
	FieldArray   = "array"
)

// Field describes one configurable option.
type Field struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Values []string `json:"values,omitempty"`
	Secret bool     `json:"secret,omitempty"`
}

// Metadata is what Describe returns.
type Metadata struct {
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	EventDescription string         `json:"event_description"`
	DefaultSchedule  string         `json:"default_schedule"`
	CanDryRun        bool           `json:"can_dry_run"`
	NoBulkReceive    bool           `json:"no_bulk_receive"`
	Fields           []Field        `json:"fields"`
	DefaultOptions   config.Options `json:"default_options"`
}

const description = `The Telegrambis Agent complements the Telegram agent with other interactions with the Telegram Bot API.

` + "`type`" + ` selects the action: pin_chat_message, unpin_chat_message, send_poll or stop_poll.

` + "`chat_id`" + ` is the target chat or channel.

` + "`message_id`" + ` selects the message to pin, unpin, or the poll to stop.

` + "`question`" + `, ` + "`options`" + ` (a JSON list), ` + "`is_anonymous`" + ` and ` + "`poll_type`" + ` describe the poll for send_poll.

` + "`debug`" + ` logs the raw API response body.

` + "`emit_events`" + ` emits the API response as an event.

` + "`expected_receive_period_in_days`" + ` is used to determine if the Agent is working. Set it to the maximum number of days
that you anticipate passing without this Agent emitting an Event.
`

const eventDescription = `Events look like this:

    {
      "ok": true,
      "result": true,
      "action": "pinChatMessage",
      "chat_id": "@channel",
      "message_id": "42"
    }
`

// Describe returns the agent metadata.
func (a *Agent) Describe() Metadata {
	kinds := make([]string, 0, len(action.Kinds()))
	for _, k := range action.Kinds() {
		kinds = append(kinds, string(k))
	}

	return Metadata{
		Name:             a.name,
		Description:      description,
		EventDescription: eventDescription,
		DefaultSchedule:  "every_12h",
		CanDryRun:        true,
		NoBulkReceive:    true,
		Fields: []Field{
			{Name: config.KeyChatID, Type: FieldString},
			{Name: config.KeyMessageID, Type: FieldString},
			{Name: config.KeyQuestion, Type: FieldString},
			{Name: config.KeyOptions, Type: FieldString},
			{Name: config.KeyIsAnonymous, Type: FieldBoolean},
			{Name: config.KeyPollType, Type: FieldString},
			{Name: config.KeyDebug, Type: FieldBoolean},
			{Name: config.KeyEmitEvents, Type: FieldBoolean},
			{Name: config.KeyToken, Type: FieldString, Secret: true},
			{Name: config.KeyReceivePeriod, Type: FieldString},
			{Name: config.KeyType, Type: FieldArray, Values: kinds},
		},
		DefaultOptions: config.DefaultOptions(),
	}
}
