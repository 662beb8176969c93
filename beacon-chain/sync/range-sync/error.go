package rangesync

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
)

// BatchErrorCode classifies a BatchError.
type BatchErrorCode uint8

const (
	// WrongStatus is returned when a transition is called from a status it is not valid in.
	WrongStatus BatchErrorCode = iota
	// MaxDownloadAttempts is returned when a batch failed to download too many times.
	MaxDownloadAttempts
	// MaxProcessingAttempts is returned when a batch failed processing or validation too many times.
	MaxProcessingAttempts
)

func (c BatchErrorCode) String() string {
	switch c {
	case WrongStatus:
		return "WRONG_STATUS"
	case MaxDownloadAttempts:
		return "MAX_DOWNLOAD_ATTEMPTS"
	case MaxProcessingAttempts:
		return "MAX_PROCESSING_ATTEMPTS"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", c)
	}
}

// BatchError is returned by Batch transitions. A WrongStatus error means the
// caller drove the batch incorrectly; the other codes mean the batch has to be
// given up.
type BatchError struct {
	Code           BatchErrorCode
	StartEpoch     primitives.Epoch
	Status         BatchStatus
	ExpectedStatus BatchStatus
}

func (e *BatchError) Error() string {
	if e.Code == WrongStatus {
		return fmt.Sprintf("batch %d: %s, status %s, expected %s", e.StartEpoch, e.Code, e.Status, e.ExpectedStatus)
	}
	return fmt.Sprintf("batch %d: %s", e.StartEpoch, e.Code)
}

// IsBatchError returns the BatchError with the given code in err's chain, if any.
func IsBatchError(err error, code BatchErrorCode) bool {
	var be *BatchError
	return errors.As(err, &be) && be.Code == code
}

var (
	errNoPeers         = errors.New("no peers to download from")
	errStalled         = errors.New("range sync has no batch to download or process")
	errUnexpectedRange = errors.New("response outside of the requested range")
	errNilFetcher      = errors.New("nil blocks fetcher")
	errNilProcessor    = errors.New("nil chain segment processor")
)
