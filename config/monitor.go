package config

import (
	"time"

	"github.com/trustmon/lola/value"
)

// Defaults for a monitor's runtime tuning, used whenever the corresponding
// path is unset in a loaded Config.
const (
	DefaultBufferSize   = 16
	DefaultHistoryTicks = 256
	DefaultAdminAddr    = ":7777"
)

// Monitor is a typed view over the runtime tuning knobs a monitor reads
// out of a dot-path Config: channel buffer sizes, how many past ticks of
// constraint-based GC retention to keep by default, and the diagnostic
// admin server's listen address.
type Monitor struct {
	cfg Config
}

// NewMonitor wraps cfg as a Monitor configuration view.
func NewMonitor(cfg Config) Monitor {
	return Monitor{cfg: cfg}
}

// BufferSize reads runtime.buffer_size, a subscriber channel capacity.
// Nothing in this module passes it to runtime/async: Context.Register and
// NewRunner take their buffer size from their caller.
func (m Monitor) BufferSize() int {
	return m.cfg.Get("runtime.buffer_size").Int(DefaultBufferSize)
}

// HistoryTicks reads runtime.history_ticks, a past-tick retention bound.
// constraints.Store.Cleanup does not consult it; its retention comes only
// from the resolver's longest-past-windows.
func (m Monitor) HistoryTicks() int {
	return m.cfg.Get("runtime.history_ticks").Int(DefaultHistoryTicks)
}

// AdminAddr is the listen address for the diagnostic admin HTTP server.
func (m Monitor) AdminAddr() string {
	return m.cfg.Get("admin.addr").String(DefaultAdminAddr)
}

// AllowedVars restricts which declared variables the diagnostic admin
// server's /vars route exposes. A nil result (the default when
// admin.allowed_vars is unset) means unrestricted: every declared
// variable is exposed.
func (m Monitor) AllowedVars() []value.VarName {
	return m.cfg.Get("admin.allowed_vars").VarNames(nil)
}

// AutoClockInterval is the tick period for runtime/async.Context's
// StartAutoClock, for a monitor running free-running rather than
// externally paced. A zero value means externally paced: the caller
// drives AdvanceClock itself.
func (m Monitor) AutoClockInterval() time.Duration {
	return m.cfg.Get("runtime.auto_clock_interval").Duration(0)
}
