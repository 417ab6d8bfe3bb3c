package circuit

import "errors"

// ErrDuplicateName is returned by Add/AddControlled for a name already
// present in the circuit.
var ErrDuplicateName = errors.New("circuit: duplicate element name")

// ErrUnknownElement is returned by Delete for a name not in the circuit.
var ErrUnknownElement = errors.New("circuit: unknown element")

// ErrUnresolvedController is returned by Finalize when a CCCS/CCVS
// names a controller that does not exist or carries no branch current.
var ErrUnresolvedController = errors.New("circuit: unresolved controller")
