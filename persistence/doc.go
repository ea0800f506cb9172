// Package persistence provides durable backends for the memory log behind a
// small Log interface. Every save rewrites the full ordered turn sequence;
// this trades write amplification for an exact match between in-memory and
// persisted state after any observed success.
package persistence
