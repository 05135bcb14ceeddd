package output

import (
	"context"

	"github.com/trustmon/lola/runtime/async"
	"github.com/trustmon/lola/value"
)

// Null discards every snapshot, embedding a Manual the same way the
// original's NullOutputHandler embeds a ManualOutputHandler rather than
// reimplementing the join logic.
type Null struct {
	manual *Manual
}

// NewNull returns a Null handler over varNames.
func NewNull(varNames []value.VarName) *Null {
	return &Null{manual: NewManual(varNames)}
}

func (n *Null) VarNames() []value.VarName { return n.manual.VarNames() }

func (n *Null) ProvideStreams(ctx context.Context, actx *async.Context) error {
	return n.manual.ProvideStreams(ctx, actx)
}

// Run drains Manual's output without keeping any of it.
func (n *Null) Run(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range n.manual.Output() {
		}
	}()
	err := n.manual.Run(ctx)
	<-done
	return err
}
