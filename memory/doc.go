// Package memory implements the bounded conversational memory store and its
// compaction engine.
//
// The Store keeps an ordered log of turns with a fixed leading system turn,
// enforces a configurable length bound and writes the full log through to a
// persistence.Log after every successful mutation. When an append pushes the
// log past the bound the Compactor replaces the older half with a single
// synthetic summary turn, falling back to lossy truncation when no summarizer
// is available.
package memory
