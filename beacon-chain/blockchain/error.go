package blockchain

import "github.com/pkg/errors"

var (
	// ErrNilVerifiedBlock is returned when ImportBlock receives no block.
	ErrNilVerifiedBlock = errors.New("nil verified block")
	// ErrNilPostState is returned when a verified block carries no post-state.
	ErrNilPostState = errors.New("nil post state")
	// ErrNonLinearSegment is returned when a chain segment is not linked parent to child.
	ErrNonLinearSegment = errors.New("chain segment is not linear")
	// errNilBlockVerifier is returned when a chain segment is imported without a verifier.
	errNilBlockVerifier = errors.New("no block verifier configured")
	// errWrongBlockCount is returned when the verifier returns a different number of blocks.
	errWrongBlockCount = errors.New("wrong number of verified blocks")
	// errVerifiedBlockMismatch is returned when a verified block is not the block given to the verifier.
	errVerifiedBlockMismatch = errors.New("verified block does not match segment")
	// errMissingDependency is returned by New when a required collaborator was not configured.
	errMissingDependency = errors.New("missing service dependency")
)
