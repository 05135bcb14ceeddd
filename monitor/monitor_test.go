package monitor

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustmon/lola/ast"
	"github.com/trustmon/lola/config"
	"github.com/trustmon/lola/output"
	"github.com/trustmon/lola/runtime/async"
	"github.com/trustmon/lola/spec"
	"github.com/trustmon/lola/value"
)

// buildIncrementSpec returns the Specification "in x; out y = x + 1".
func buildIncrementSpec(t *testing.T) *spec.Specification {
	b := spec.NewBuilder()
	require.NoError(t, b.DeclareInput("x"))
	require.NoError(t, b.DeclareOutput("y"))
	require.NoError(t, b.Equation("y", ast.BinOp{
		Left:  ast.Var{Name: value.New("x")},
		Right: ast.Lit{Value: value.Int(1)},
		Op:    ast.Add,
	}))
	s, err := b.Build()
	require.NoError(t, err)
	return s
}

func TestNewBuildsDependencyGraph(t *testing.T) {
	s := buildIncrementSpec(t)
	m := New(s)
	require.NoError(t, m.Validate())
	assert.Equal(t, 0, m.Graph.LongestPastWindow(value.New("x")))
}

func TestConstraintRuntimeSteps(t *testing.T) {
	s := buildIncrementSpec(t)
	m := New(s)
	require.NoError(t, m.Validate())

	rt := m.ConstraintRuntime(stubParser{})
	x := value.New("x")
	y := value.New("y")

	out, err := rt.Step(map[value.VarName]value.Value{x: value.Int(1)})
	require.NoError(t, err)
	v, _ := out[y].AsInt()
	assert.Equal(t, int64(2), v)

	out, err = rt.Step(map[value.VarName]value.Value{x: value.Int(5)})
	require.NoError(t, err)
	v, _ = out[y].AsInt()
	assert.Equal(t, int64(6), v)
}

func TestAdminServerHonorsConfiguredAllowedVars(t *testing.T) {
	s := buildIncrementSpec(t)
	m := New(s)
	require.NoError(t, m.Validate())

	cfg := config.NewConfig(nil)
	cfg.Set(":0", "admin.addr")
	cfg.Set("y", "admin.allowed_vars.#")

	srv := m.AdminServer(config.NewMonitor(cfg))

	req := httptest.NewRequest(http.MethodGet, "/vars", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []string{"y"}, got)
}

type stubParser struct{}

func (stubParser) Parse(string) (ast.Expr, error) { return nil, nil }

type sliceSource struct {
	items []value.Value
	i     int
}

func (s *sliceSource) Next(ctx context.Context) (value.Value, bool, error) {
	if s.i >= len(s.items) {
		return value.Unknown(), false, nil
	}
	v := s.items[s.i]
	s.i++
	return v, true, nil
}

func TestRunDrivesAsyncRunnerToCompletion(t *testing.T) {
	s := buildIncrementSpec(t)
	m := New(s)
	require.NoError(t, m.Validate())

	x := value.New("x")
	y := value.New("y")
	inputs := map[value.VarName]async.ValueSource{
		x: &sliceSource{items: []value.Value{value.Int(1), value.Int(2), value.Int(3)}},
	}
	handler := output.NewManual([]value.VarName{y})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var got []output.Snapshot
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for snap := range handler.Output() {
			got = append(got, snap)
		}
	}()

	require.NoError(t, m.Run(ctx, inputs, 4, stubParser{}, handler, time.Millisecond))
	<-collected

	require.Len(t, got, 3)
	want := []int64{2, 3, 4}
	for i, snap := range got {
		v, _ := snap.Values[y].AsInt()
		assert.Equal(t, want[i], v)
	}
}

func TestRunAsFastAsPossibleFinishesWithoutATicker(t *testing.T) {
	s := buildIncrementSpec(t)
	m := New(s)
	require.NoError(t, m.Validate())

	x := value.New("x")
	y := value.New("y")
	inputs := map[value.VarName]async.ValueSource{
		x: &sliceSource{items: []value.Value{value.Int(10), value.Int(20)}},
	}
	handler := output.NewManual([]value.VarName{y})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var got []output.Snapshot
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for snap := range handler.Output() {
			got = append(got, snap)
		}
	}()

	require.NoError(t, m.RunAsFastAsPossible(ctx, inputs, 4, stubParser{}, handler))
	<-collected

	require.Len(t, got, 2)
	v0, _ := got[0].Values[y].AsInt()
	v1, _ := got[1].Values[y].AsInt()
	assert.Equal(t, int64(11), v0)
	assert.Equal(t, int64(21), v1)
}
