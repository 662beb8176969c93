// Package execution defines a client that notifies an execution engine of
// fork choice changes over the Engine API.
package execution

import (
	"context"
	"time"

	gethRPC "github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-ingest/config/params"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

const (
	// ForkchoiceUpdatedMethod v1 request string for JSON-RPC.
	ForkchoiceUpdatedMethod = "engine_forkchoiceUpdatedV1"
	// ForkchoiceUpdatedMethodV2 v2 request string for JSON-RPC.
	ForkchoiceUpdatedMethodV2 = "engine_forkchoiceUpdatedV2"
	// ForkchoiceUpdatedMethodV3 v3 request string for JSON-RPC.
	ForkchoiceUpdatedMethodV3 = "engine_forkchoiceUpdatedV3"

	defaultEngineTimeout = time.Second * 8
)

// EngineCaller defines a client that can interact with an Ethereum
// execution node's engine service via JSON-RPC.
type EngineCaller interface {
	NotifyForkchoiceUpdate(ctx context.Context, fork params.ForkName, state *ForkchoiceState) (*PayloadStatus, error)
}

var _ EngineCaller = (*Client)(nil)

// Client is an Engine API client.
type Client struct {
	rpc *gethRPC.Client
}

// NotifyForkchoiceUpdate calls the engine_forkchoiceUpdated method matching the fork of the head
// block, without payload attributes.
func (c *Client) NotifyForkchoiceUpdate(ctx context.Context, fork params.ForkName, state *ForkchoiceState) (*PayloadStatus, error) {
	ctx, span := trace.StartSpan(ctx, "execution.NotifyForkchoiceUpdate")
	defer span.End()
	start := time.Now()
	defer func() {
		forkchoiceUpdatedLatency.Observe(float64(time.Since(start).Milliseconds()))
	}()

	if state == nil {
		return nil, errors.New("nil forkchoice state")
	}
	method, err := forkchoiceUpdatedMethod(fork)
	if err != nil {
		return nil, err
	}
	d := time.Now().Add(defaultEngineTimeout)
	ctx, cancel := context.WithDeadline(ctx, d)
	defer cancel()

	result := &ForkchoiceUpdatedResponse{}
	if err := c.rpc.CallContext(ctx, result, method, state, nil); err != nil {
		return nil, handleRPCError(err)
	}
	if result.Status == nil {
		return nil, ErrNilResponse
	}
	forkchoiceUpdatedStatus.WithLabelValues(result.Status.Status).Inc()
	switch result.Status.Status {
	case StatusValid:
		return result.Status, nil
	case StatusSyncing, StatusAccepted:
		return result.Status, ErrAcceptedSyncingPayloadStatus
	case StatusInvalid:
		return result.Status, ErrInvalidPayloadStatus
	default:
		return result.Status, ErrUnknownPayloadStatus
	}
}

// Close the underlying rpc connection.
func (c *Client) Close() {
	c.rpc.Close()
}

func forkchoiceUpdatedMethod(fork params.ForkName) (string, error) {
	switch {
	case fork >= params.ForkDeneb:
		return ForkchoiceUpdatedMethodV3, nil
	case fork == params.ForkCapella:
		return ForkchoiceUpdatedMethodV2, nil
	case fork == params.ForkBellatrix:
		return ForkchoiceUpdatedMethod, nil
	default:
		return "", errors.Wrapf(ErrPreMergeFork, "fork %s", fork)
	}
}

// Handles errors received from the RPC server according to the Engine API error codes.
func handleRPCError(err error) error {
	if err == nil {
		return nil
	}
	if isTimeout(err) {
		return errors.Wrap(err, "timeout from execution engine")
	}
	e, ok := err.(gethRPC.Error)
	if !ok {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return errors.Wrap(err, "got an unexpected error in JSON-RPC response")
	}
	switch e.ErrorCode() {
	case -32700:
		return ErrParse
	case -32600:
		return ErrInvalidRequest
	case -32601:
		return ErrMethodNotFound
	case -32602:
		return ErrInvalidParams
	case -32603:
		return ErrInternal
	case -38001:
		return ErrUnknownPayload
	case -38002:
		return ErrInvalidForkchoiceState
	case -38003:
		return ErrInvalidPayloadAttributes
	case -32000:
		// Only -32000 status codes are data errors in the RPC specification.
		errWithData, ok := err.(gethRPC.DataError)
		if !ok {
			return errors.Wrapf(err, "got an unexpected error in JSON-RPC response")
		}
		log.WithFields(logrus.Fields{
			"data": errWithData.ErrorData(),
		}).Error("JSON-RPC server error")
		return ErrServer
	default:
		return err
	}
}

type httpTimeoutError interface {
	Error() string
	Timeout() bool
}

func isTimeout(e error) bool {
	t, ok := e.(httpTimeoutError)
	return ok && t.Timeout()
}
