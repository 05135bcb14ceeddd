package mock

import (
	"context"

	"github.com/trustmon/lola/output"
	"github.com/trustmon/lola/runtime/async"
	"github.com/trustmon/lola/value"
)

// make sure we implement the output.Handler interface
var _ output.Handler = (*Handler)(nil)

// HandlerData for mocking an output.Handler.
type HandlerData struct {
	Names              []value.VarName
	ProvideStreamsErr  error
	RunErr             error
	ProvideStreamsCalls int
	RunCalls           int
}

// Handler mock, recording how many times its methods were called and
// returning scripted errors.
type Handler struct {
	Data HandlerData
}

// VarNames returns Data.Names.
func (h *Handler) VarNames() []value.VarName { return h.Data.Names }

// ProvideStreams records the call and returns Data.ProvideStreamsErr.
func (h *Handler) ProvideStreams(ctx context.Context, actx *async.Context) error {
	h.Data.ProvideStreamsCalls++
	return h.Data.ProvideStreamsErr
}

// Run records the call and returns Data.RunErr.
func (h *Handler) Run(ctx context.Context) error {
	h.Data.RunCalls++
	return h.Data.RunErr
}
