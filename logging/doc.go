// Package logging provides a tiny abstraction over slog so downstream code
// depends on a minimal Logger interface while callers can plug any structured
// logger. A NoOp implementation is provided for tests.
package logging
