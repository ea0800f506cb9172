// Package model defines the normalized interface to language model inference
// services. A request carries the ordered turn sequence plus the tool schema;
// a response is either final text or a batch of tool call requests. Provider
// adapters live in the subpackages openai and anthropic; MockModel serves
// tests and demos.
//
// Generation is deliberately synchronous: the dispatch loop suspends until a
// round trip completes or its deadline expires, so streaming adds nothing
// here.
package model
