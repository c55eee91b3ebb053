// Package event provides the upstream records that trigger the agent.
//
// An Event carries a payload whose fields are interpolated into the agent options
// before a dispatch. Events are consumed once, one at a time, in arrival order.
// Each event gets a deterministic SHA1-based ID derived from its payload when the
// producer does not supply one.
package event
