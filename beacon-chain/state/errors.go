package state

import "github.com/pkg/errors"

var (
	// ErrNilInnerState returns when the inner state is nil and no copy set or get
	// operations can be performed on state.
	ErrNilInnerState = errors.New("nil inner state")
	// ErrUnknownCommittee is returned when the state holds no committee for the requested slot and index.
	ErrUnknownCommittee = errors.New("unknown beacon committee")
	// ErrValidatorIndexOutOfRange is returned for validator indices beyond the registry.
	ErrValidatorIndexOutOfRange = errors.New("validator index out of range")
)
