// Package agent implements the Telegram action agent: a host plugin that, on a
// schedule or for each received event, performs one Bot API action (pin or unpin
// a message, send or stop a poll) and optionally emits the API response as a
// result record.
//
// The host collaborators are explicit: a log sink, an event sink, a history store
// for the health predicate, and an interpolation function that renders option
// placeholders against an incoming event.
package agent
