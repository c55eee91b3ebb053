// Package action defines the Telegram actions the agent can perform.
//
// Each Kind maps to exactly one Bot API method and declares which option fields
// it needs. The set is closed: pin_chat_message, unpin_chat_message, send_poll
// and stop_poll.
package action
