// Package core defines the shared primitives of RecallMesh: the role-tagged
// conversation Turn, the closed Role enumeration and the marker conventions
// that distinguish synthetic summary turns from the anchor system prompt.
// Higher-level packages (memory, dispatch, model adapters) all exchange
// values of these types.
package core
