package action

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pfrederiksen/telegrambis/internal/telegram"
)

// ErrUnknownKind is returned by ParseKind for values outside the action set.
var ErrUnknownKind = errors.New("unknown action type")

// Kind selects the Bot API operation performed on each trigger
type Kind string

const (
	PinChatMessage   Kind = "pin_chat_message"
	UnpinChatMessage Kind = "unpin_chat_message"
	SendPoll         Kind = "send_poll"
	StopPoll         Kind = "stop_poll"
)

var methods = map[Kind]string{
	PinChatMessage:   telegram.MethodPinChatMessage,
	UnpinChatMessage: telegram.MethodUnpinChatMessage,
	SendPoll:         telegram.MethodSendPoll,
	StopPoll:         telegram.MethodStopPoll,
}

// Kinds returns every supported action in declaration order.
func Kinds() []Kind {
	return []Kind{PinChatMessage, UnpinChatMessage, SendPoll, StopPoll}
}

// ParseKind converts a configured type string into a Kind.
// Matching is exact: "Pin_Chat_Message" is not accepted.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Valid reports whether k is one of the supported actions.
func (k Kind) Valid() bool {
	_, ok := methods[k]
	return ok
}

// Method returns the Bot API method name, e.g. "pinChatMessage".
// It returns "" for an invalid kind.
func (k Kind) Method() string {
	return methods[k]
}

// NeedsMessageID reports whether the action targets an existing message.
func (k Kind) NeedsMessageID() bool {
	return k == PinChatMessage || k == UnpinChatMessage || k == StopPoll
}

// IsPoll reports whether the action creates a poll and so needs the poll fields.
func (k Kind) IsPoll() bool {
	return k == SendPoll
}

// String implements fmt.Stringer
func (k Kind) String() string {
	return string(k)
}

// ValidValues returns the quoted, comma-separated list used in error messages.
func ValidValues() string {
	quoted := make([]string, 0, len(methods))
	for _, k := range Kinds() {
		quoted = append(quoted, "'"+string(k)+"'")
	}
	return strings.Join(quoted, ", ")
}
