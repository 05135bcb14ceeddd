// Package spec defines the Specification type mapping output variables to
// their defining equations, and a Builder that validates and normalizes a
// specification before it is handed to a runtime.
package spec

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
	"fmt"

	"github.com/trustmon/lola/ast"
	"github.com/trustmon/lola/value"
)

// SpecError reports a structural problem found while building a
// Specification: a duplicate declaration, a free variable that is not
// declared anywhere, or an output with no equation. SpecErrors are fatal
// before the runtime starts (spec.md §7).
type SpecError struct {
	Var value.VarName
	Msg string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("spec: %s: %s", e.Var, e.Msg)
}

// Specification is the immutable mapping from declared streams to their
// equations, as described in spec.md §3. Exprs holds one normalized
// equation per output variable; Types is optional and may be nil or
// partial.
type Specification struct {
	InputVars  []value.VarName
	OutputVars []value.VarName
	Exprs      map[value.VarName]ast.Expr
	Types      map[value.VarName]value.StreamType
}

// VarExpr returns the equation for var, if any.
func (s *Specification) VarExpr(v value.VarName) (ast.Expr, bool) {
	e, ok := s.Exprs[v]
	return e, ok
}

// IsInput reports whether v was declared as an input.
func (s *Specification) IsInput(v value.VarName) bool {
	for _, n := range s.InputVars {
		if n == v {
			return true
		}
	}
	return false
}

// IsOutput reports whether v was declared as an output.
func (s *Specification) IsOutput(v value.VarName) bool {
	for _, n := range s.OutputVars {
		if n == v {
			return true
		}
	}
	return false
}

// AllVars returns InputVars followed by OutputVars.
func (s *Specification) AllVars() []value.VarName {
	out := make([]value.VarName, 0, len(s.InputVars)+len(s.OutputVars))
	out = append(out, s.InputVars...)
	out = append(out, s.OutputVars...)
	return out
}

// Builder accumulates declarations and equations and validates the result:
// every addition is checked immediately so that Build only has to check
// cross-cutting invariants.
type Builder struct {
	inputs  []value.VarName
	outputs []value.VarName
	exprs   map[value.VarName]ast.Expr
	types   map[value.VarName]value.StreamType
	seen    map[value.VarName]bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		exprs: make(map[value.VarName]ast.Expr),
		types: make(map[value.VarName]value.StreamType),
		seen:  make(map[value.VarName]bool),
	}
}

// DeclareInput declares an input stream.
func (b *Builder) DeclareInput(name string) error {
	v := value.New(name)
	if b.seen[v] {
		return &SpecError{Var: v, Msg: "declared more than once"}
	}
	b.seen[v] = true
	b.inputs = append(b.inputs, v)
	return nil
}

// DeclareOutput declares an output stream. Its equation is supplied
// separately via Equation.
func (b *Builder) DeclareOutput(name string) error {
	v := value.New(name)
	if b.seen[v] {
		return &SpecError{Var: v, Msg: "declared more than once"}
	}
	b.seen[v] = true
	b.outputs = append(b.outputs, v)
	return nil
}

// Annotate records an optional declared type for name.
func (b *Builder) Annotate(name string, t value.StreamType) {
	b.types[value.New(name)] = t
}

// Equation attaches the defining expression for an already-declared output.
func (b *Builder) Equation(name string, e ast.Expr) error {
	v := value.New(name)
	if !b.seen[v] {
		return &SpecError{Var: v, Msg: "equation for undeclared variable"}
	}
	for _, in := range b.inputs {
		if in == v {
			return &SpecError{Var: v, Msg: "equation for an input variable"}
		}
	}
	b.exprs[v] = e
	return nil
}

// Build validates that every output has an equation, that every free
// variable in every equation is declared, normalizes Dynamic nodes via
// ast.Normalize, and returns the immutable Specification.
func (b *Builder) Build() (*Specification, error) {
	for _, v := range b.outputs {
		if _, ok := b.exprs[v]; !ok {
			return nil, &SpecError{Var: v, Msg: "output has no equation"}
		}
	}

	declared := make([]value.VarName, 0, len(b.inputs)+len(b.outputs))
	declared = append(declared, b.inputs...)
	declared = append(declared, b.outputs...)

	normalized := make(map[value.VarName]ast.Expr, len(b.exprs))
	for v, e := range b.exprs {
		for _, free := range ast.FreeVars(e) {
			if !b.seen[free] {
				return nil, &SpecError{Var: free, Msg: fmt.Sprintf("undeclared variable referenced by %s", v)}
			}
		}
		normalized[v] = ast.Normalize(e, v, declared)
	}

	return &Specification{
		InputVars:  append([]value.VarName(nil), b.inputs...),
		OutputVars: append([]value.VarName(nil), b.outputs...),
		Exprs:      normalized,
		Types:      b.types,
	}, nil
}
