package memory

import (
	"fmt"

	"github.com/hupe1980/recallmesh/core"
)

// IndexOutOfRangeError reports a revision attempt against an ordinal that was
// never issued by the store.
type IndexOutOfRangeError struct {
	Index int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("message index %d is out of range", e.Index)
}

// WrongRoleError reports a revision attempt against a turn that is not an
// assistant turn. Only assistant turns may be revised.
type WrongRoleError struct {
	Index int
	Role  core.Role
}

func (e *WrongRoleError) Error() string {
	return fmt.Sprintf("message at index %d has role %s, only assistant messages can be revised", e.Index, e.Role)
}

// TurnCompactedError reports a revision attempt against an ordinal whose turn
// was summarized away by a compaction. The ordinal was valid once but no
// longer addresses a live turn.
type TurnCompactedError struct {
	Index int
}

func (e *TurnCompactedError) Error() string {
	return fmt.Sprintf("message at index %d was folded into a summary and can no longer be revised", e.Index)
}

// PersistenceError wraps a backend write failure. The in-memory mutation that
// triggered the write has been rolled back by the time this error surfaces.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist memory log during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
