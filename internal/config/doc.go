// Package config holds the agent options: the flat key/value mapping the host
// stores, its defaults, validation, and the single conversion step that turns
// string-typed booleans and enums into a typed Config.
//
// Options can be loaded from a YAML or JSON file. Values may be strings or native
// YAML/JSON scalars; lists (for poll options) are accepted and re-encoded as JSON.
package config
