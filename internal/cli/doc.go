// Package cli implements the command-line interface for telegrambis.
//
// The cli package provides the Cobra-based command tree that plays the host
// role for the agent: it loads options from a YAML or JSON file and --set
// overrides, validates them, and runs the agent once (check), over a stream of
// events (receive), or as a long-running HTTP service with a schedule (serve).
// It coordinates the config, agent, history, sink and server packages.
package cli
