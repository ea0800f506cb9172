// Package testutil provides small builders for conversation logs used across
// the test suites.
package testutil
