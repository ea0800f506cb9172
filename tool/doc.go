// Package tool defines the memory tool surface exposed to the model: the
// JSON schema definitions advertised with each inference request and the
// decoder that turns raw tool calls into a closed set of typed requests.
package tool
