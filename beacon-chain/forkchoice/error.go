package forkchoice

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCode identifies the class of a fork choice error.
type ErrorCode int

const (
	// InvalidAttestation errors carry an AttestationCode.
	InvalidAttestation ErrorCode = iota
	InvalidBlock
	UnknownParent
	UnknownBlock
	InvalidAttesterSlashing
)

func (c ErrorCode) String() string {
	switch c {
	case InvalidAttestation:
		return "INVALID_ATTESTATION"
	case InvalidBlock:
		return "INVALID_BLOCK"
	case UnknownParent:
		return "UNKNOWN_PARENT"
	case UnknownBlock:
		return "UNKNOWN_BLOCK"
	case InvalidAttesterSlashing:
		return "INVALID_ATTESTER_SLASHING"
	default:
		return "UNKNOWN_ERROR"
	}
}

// AttestationCode identifies why fork choice rejected an attestation.
type AttestationCode int

const (
	AttestationCodeNone AttestationCode = iota
	EmptyAggregationBitfield
	UnknownHeadBlock
	BadTargetEpoch
	UnknownTargetRoot
	FutureEpoch
	PastEpoch
	InvalidTarget
	AttestsToFutureBlock
	FutureSlot
)

func (c AttestationCode) String() string {
	switch c {
	case AttestationCodeNone:
		return ""
	case EmptyAggregationBitfield:
		return "EMPTY_AGGREGATION_BITFIELD"
	case UnknownHeadBlock:
		return "UNKNOWN_HEAD_BLOCK"
	case BadTargetEpoch:
		return "BAD_TARGET_EPOCH"
	case UnknownTargetRoot:
		return "UNKNOWN_TARGET_ROOT"
	case FutureEpoch:
		return "FUTURE_EPOCH"
	case PastEpoch:
		return "PAST_EPOCH"
	case InvalidTarget:
		return "INVALID_TARGET"
	case AttestsToFutureBlock:
		return "ATTESTS_TO_FUTURE_BLOCK"
	case FutureSlot:
		return "FUTURE_SLOT"
	default:
		return "UNKNOWN_ATTESTATION_ERROR"
	}
}

// Error is a fork choice rejection with a recognized code.
type Error struct {
	Code            ErrorCode
	AttestationCode AttestationCode
	Message         string
}

func (e *Error) Error() string {
	if e.Code == InvalidAttestation {
		return fmt.Sprintf("%s %s: %s", e.Code, e.AttestationCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAttestationError returns an InvalidAttestation error with the given code.
func NewAttestationError(code AttestationCode, format string, args ...interface{}) error {
	return &Error{Code: InvalidAttestation, AttestationCode: code, Message: fmt.Sprintf(format, args...)}
}

// NewError returns a fork choice error with the given code.
func NewError(code ErrorCode, format string, args ...interface{}) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// InvalidAttestationCode returns the attestation code of err if err is, or
// wraps, an InvalidAttestation fork choice error.
func InvalidAttestationCode(err error) (AttestationCode, bool) {
	var fcErr *Error
	if errors.As(err, &fcErr) && fcErr.Code == InvalidAttestation {
		return fcErr.AttestationCode, true
	}
	return AttestationCodeNone, false
}
