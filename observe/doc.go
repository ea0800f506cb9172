// Package observe groups the Prometheus instruments exported by RecallMesh.
// All instrument methods are nil-receiver safe so instrumented packages can
// run without a metrics registry wired in.
package observe
