package core

import "fmt"

// InvalidRoleError reports an attempt to append a turn with a role outside
// the closed enumeration. It signals a programming error, not a recoverable
// agent mistake.
type InvalidRoleError struct {
	Role string
}

func (e *InvalidRoleError) Error() string {
	return fmt.Sprintf("invalid role %q: must be one of system, user, assistant, tool", e.Role)
}
