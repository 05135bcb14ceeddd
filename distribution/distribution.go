// Package distribution implements the labelled distribution graph spec.md
// §4.7 describes: a snapshot of which monitor node each variable is
// currently assigned to, consumed by the monitored_at combinator to decide
// whether a variable is being watched by a particular node at a given
// tick. Distribution placement itself (centralised vs graph-partitioned,
// how a snapshot is computed) is an external collaborator's job, specified
// only by the Source contract below; this package owns the snapshot shape
// and its streaming into a runtime/async.Context.
package distribution

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/trustmon/lola/runtime/async"
	"github.com/trustmon/lola/value"
)

// Edge is one weighted arc of the distribution topology between two named
// monitor nodes (central_monitor and any graph-partitioned peers).
type Edge struct {
	From, To string
	Weight   float64
}

// Graph is the directed graph of monitor nodes the distribution mode
// described in spec.md §4.7 places variables across.
type Graph struct {
	CentralMonitor string
	Edges          []Edge
}

// Snapshot is one arriving labelled-distribution-graph record: which
// variables are currently assigned to which node, at the tick it arrives.
// SnapshotID is carried so an output handler or diagnostic log can
// correlate a monitored_at decision back to the snapshot that produced it.
type Snapshot struct {
	SnapshotID uuid.UUID
	Graph      Graph
	VarNames   []value.VarName
	NodeLabels map[string][]value.VarName
}

// IsAssignedTo reports whether v is labelled to node in this snapshot —
// exactly the test ast.MonitoredAt needs.
func (s *Snapshot) IsAssignedTo(v value.VarName, node string) bool {
	for _, labelled := range s.NodeLabels[node] {
		if labelled == v {
			return true
		}
	}
	return false
}

// Source streams successive Snapshots, one per tick, the way an input
// adapter streams input samples. Concrete sources (file, MQTT, ROS bridge)
// are out of scope; callers inject an implementation.
type Source interface {
	Next(ctx context.Context) (*Snapshot, bool, error)
}

// StreamName returns the deterministic variable name the monitored_at
// combinator subscribes to for (v, node): a boolean stream of "is v
// assigned to node this tick", computed once per snapshot rather than
// recomputed by every ast.MonitoredAt node that happens to ask about the
// same pair.
func StreamName(v value.VarName, node string) value.VarName {
	return value.New(fmt.Sprintf("$monitored_at$%s$%s", v.Name(), node))
}

// Register installs one computed boolean stream per (v, node) pair into
// actx, each pulling from source and testing Snapshot.IsAssignedTo. Every
// ast.MonitoredAt{Var: v, Node: node} appearing anywhere in a specification
// should have a matching call here before the specification's equations
// are compiled.
func Register(actx *async.Context, source Source, pairs []struct {
	Var  value.VarName
	Node string
}, bufferSize int) {
	// One underlying snapshot reader, fanned out: every (v, node) pair
	// needs its own derived tick, but they must all derive from the same
	// sequence of snapshots, so each registered recv pulls its own snapshot
	// independently would desynchronize the graph across pairs. Instead, a
	// single shared puller broadcasts each snapshot to one channel per
	// pair, a single-producer multi-subscriber fan-out implemented here
	// directly rather than through a varManager because the pairs must
	// stay tick-aligned with each other.
	type sub struct {
		v    value.VarName
		node string
		ch   chan *Snapshot
	}
	subs := make([]sub, len(pairs))
	for i, p := range pairs {
		subs[i] = sub{v: p.Var, node: p.Node, ch: make(chan *Snapshot, bufferSize)}
	}

	go func() {
		defer func() {
			for _, s := range subs {
				close(s.ch)
			}
		}()
		ctx := context.Background()
		for {
			snap, ok, err := source.Next(ctx)
			if err != nil || !ok {
				return
			}
			for _, s := range subs {
				select {
				case s.ch <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	for _, s := range subs {
		s := s
		actx.Register(StreamName(s.v, s.node), bufferSize, func(ctx context.Context) (value.Value, bool, error) {
			select {
			case snap, ok := <-s.ch:
				if !ok {
					return value.Unknown(), false, nil
				}
				return value.Bool(snap.IsAssignedTo(s.v, s.node)), true, nil
			case <-ctx.Done():
				return value.Unknown(), false, ctx.Err()
			}
		})
	}
}
