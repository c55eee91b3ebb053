// Package history keeps the host-side record the health predicate reads: when the
// agent last created an event and when it last failed.
//
// Three stores are provided. MemoryStore lives for the process, FileStore keeps a
// small JSON file per agent under a data directory (default
// ~/.local/share/telegrambis/), and RedisStore keeps a hash per agent so several
// runtimes can share it.
package history
