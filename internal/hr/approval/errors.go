package approval

import "errors"

// Error kinds surfaced by the workflow. All are local, recoverable
// conditions: validation happens before any mutation, so a failed call
// leaves no partial state behind.
var (
	ErrInvalidStatus  = errors.New("unsupported evaluation status")
	ErrNotAuthorized  = errors.New("not authorized for this approval step")
	ErrNoNextStep     = errors.New("no next approval step defined")
	ErrIncompleteForm = errors.New("required criteria are not fully scored")
)
