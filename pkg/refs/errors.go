package refs

import "errors"

// Sentinel errors returned by the reference store. Callers distinguish them
// with errors.Is; call sites typically wrap one of these with additional
// context via github.com/pkg/errors.Wrap before returning it.
var (
	// ErrNotFound indicates that no reference exists with the requested name.
	ErrNotFound = errors.New("reference not found")
	// ErrAlreadyExists indicates that a create or rename target is already
	// occupied and force was not requested.
	ErrAlreadyExists = errors.New("reference already exists")
	// ErrInvalidName indicates that a name failed grammar validation.
	ErrInvalidName = errors.New("invalid reference name")
	// ErrCorrupt indicates a malformed loose or packed reference file.
	ErrCorrupt = errors.New("corrupt reference data")
	// ErrKindMismatch indicates a direct-only or symbolic-only operation was
	// applied to a reference of the other kind.
	ErrKindMismatch = errors.New("reference kind mismatch")
	// ErrNonexistentTarget indicates that a direct reference's oid is not
	// present in the object database.
	ErrNonexistentTarget = errors.New("target object does not exist")
	// ErrTooNested indicates that a symbolic chain exceeded MaxNesting hops.
	ErrTooNested = errors.New("symbolic reference chain too deeply nested")
)
