package constraints

import (
	"reflect"

	"github.com/trustmon/lola/ast"
	"github.com/trustmon/lola/value"
)

func asLit(e ast.Expr) (value.Value, bool) {
	lit, ok := e.(ast.Lit)
	if !ok {
		return value.Value{}, false
	}
	return lit.Value, true
}

func sameExpr(a, b ast.Expr) bool {
	return reflect.DeepEqual(a, b)
}
