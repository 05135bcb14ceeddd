package semantics

import (
	"context"
	"fmt"

	"github.com/dgryski/go-wyhash"

	"github.com/trustmon/lola/ast"
	"github.com/trustmon/lola/runtime/async"
	"github.com/trustmon/lola/value"
)

// BootstrapError reports that a defer/dynamic property string failed to
// parse. See constraints.BootstrapError for the equivalent in the
// constraint-based runtime; the async runtime surfaces its own because
// Compile never touches a constraints.Store.
type BootstrapError struct {
	Source string
	Err    error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("semantics: bootstrap from %q: %v", e.Source, e.Err)
}

func (e *BootstrapError) Unwrap() error { return e.Err }

// compileDefer implements defer/dynamic/restricted_dynamic (spec.md §4.6):
// probe x until it first yields a non-Unknown string, parse it, and
// delegate to the parsed expression — compiled against a Subcontext
// restricted to vars when this is a RestrictedDynamic (vars == nil means an
// unrestricted probe, i.e. plain Defer). once distinguishes Defer's
// bootstrap-exactly-one-time semantics from Dynamic/RestrictedDynamic's:
// when once is true the probe is never read again after the first
// bootstrap, locking the combinator to inner forever; when false the probe
// keeps being read every tick, and a new bootstrap string different from
// the one currently installed swaps inner for a freshly compiled
// substream, discarding the old one, while an unchanged (or Unknown)
// string keeps reusing the existing inner. Parsed expressions are cached
// by a wyhash digest of their source string so a probe that keeps
// re-yielding the same property string across ticks never pays the parser
// twice for identical input.
func compileDefer(ctx context.Context, x ast.Expr, vars []value.VarName, actx *async.Context, parser Parser, once bool) (Combinator, error) {
	probe, err := Compile(ctx, x, actx, parser)
	if err != nil {
		return nil, err
	}

	cache := make(map[uint64]ast.Expr)
	var (
		inner        Combinator
		bootstrapped bool
		current      string
	)

	bootstrap := func(s string) error {
		h := wyhash.Hash([]byte(s), 0)
		parsed, cached := cache[h]
		if !cached {
			var err error
			parsed, err = parser.Parse(s)
			if err != nil {
				return &BootstrapError{Source: s, Err: err}
			}
			cache[h] = parsed
		}

		target := actx
		if vars != nil {
			target = actx.Subcontext(vars)
		}
		newInner, err := Compile(ctx, parsed, target, parser)
		if err != nil {
			return err
		}
		inner, bootstrapped, current = newInner, true, s
		return nil
	}

	return func(callCtx context.Context) (value.Value, bool, error) {
		if once && bootstrapped {
			return inner(callCtx)
		}

		xv, ok, err := probe(callCtx)
		if err != nil {
			return value.Unknown(), false, err
		}
		if !ok {
			if bootstrapped {
				return inner(callCtx)
			}
			return value.Unknown(), false, nil
		}
		if xv.IsUnknown() {
			if bootstrapped {
				return inner(callCtx)
			}
			return value.Unknown(), true, nil
		}

		s, isStr := xv.AsStr()
		if !isStr {
			return value.Unknown(), false, fmt.Errorf("semantics: bootstrap probe yielded a non-Str value")
		}

		if !bootstrapped || s != current {
			if err := bootstrap(s); err != nil {
				return value.Unknown(), false, err
			}
		}
		return inner(callCtx)
	}, nil
}
