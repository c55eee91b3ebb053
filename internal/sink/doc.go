// Package sink provides destinations for the result records the agent emits.
//
// Printer writes records as JSON lines (stdout for the CLI), and Recorder wraps
// any Sink to note each emission in the agent history so the health predicate
// can see it.
package sink
