package output

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/trustmon/lola/runtime/async"
	"github.com/trustmon/lola/value"
)

// Stdout writes "var[tick] = value" lines, one per output variable per
// tick, embedding a Manual the same way the original's
// StdoutOutputHandler embeds a ManualOutputHandler and enumerates its
// combined output.
type Stdout struct {
	manual *Manual
	w      io.Writer
}

// NewStdout returns a Stdout handler over varNames, writing to os.Stdout.
func NewStdout(varNames []value.VarName) *Stdout {
	return &Stdout{manual: NewManual(varNames), w: os.Stdout}
}

func (s *Stdout) VarNames() []value.VarName { return s.manual.VarNames() }

func (s *Stdout) ProvideStreams(ctx context.Context, actx *async.Context) error {
	return s.manual.ProvideStreams(ctx, actx)
}

// Run prints every snapshot Manual produces until the underlying streams
// are exhausted.
func (s *Stdout) Run(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for snap := range s.manual.Output() {
			for _, name := range s.manual.VarNames() {
				v, ok := snap.Values[name]
				if !ok {
					continue
				}
				fmt.Fprintf(s.w, "%s[%d] = %s\n", name, snap.Tick, v)
			}
		}
	}()
	err := s.manual.Run(ctx)
	<-done
	return err
}
