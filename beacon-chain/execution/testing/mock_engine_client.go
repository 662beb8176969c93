package testing

import (
	"context"
	"sync"

	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/execution"
	"github.com/prysmaticlabs/beacon-ingest/config/params"
)

// ForkchoiceCall records a single forkchoice update.
type ForkchoiceCall struct {
	Fork  params.ForkName
	State execution.ForkchoiceState
}

// EngineClient --
type EngineClient struct {
	PayloadStatus *execution.PayloadStatus
	Err           error
	// Notified receives every recorded call when set. Sends block, so tests
	// should size the channel for the calls they expect.
	Notified chan ForkchoiceCall

	lock  sync.Mutex
	calls []ForkchoiceCall
}

// NotifyForkchoiceUpdate --
func (e *EngineClient) NotifyForkchoiceUpdate(_ context.Context, fork params.ForkName, state *execution.ForkchoiceState) (*execution.PayloadStatus, error) {
	call := ForkchoiceCall{Fork: fork, State: *state}
	e.lock.Lock()
	e.calls = append(e.calls, call)
	e.lock.Unlock()
	if e.Notified != nil {
		e.Notified <- call
	}
	return e.PayloadStatus, e.Err
}

// ForkchoiceCalls returns a copy of the recorded calls.
func (e *EngineClient) ForkchoiceCalls() []ForkchoiceCall {
	e.lock.Lock()
	defer e.lock.Unlock()
	calls := make([]ForkchoiceCall, len(e.calls))
	copy(calls, e.calls)
	return calls
}
