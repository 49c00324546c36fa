// Package expr parses textual expressions of one real variable into an
// evaluable form and computes symbolic derivatives over a closed set of
// operators and elementary functions.
package expr

import (
	"fmt"
	"strings"
)

// Function is a parsed expression f(x) together with its symbolically
// derived f'(x). It satisfies the solver's Func interface.
type Function struct {
	src   string
	tree  Expr
	deriv Expr
}

// Parse compiles an expression string into a Function. Decimal commas are
// normalized to dots before lexing.
func Parse(src string) (*Function, error) {
	normalized := strings.ReplaceAll(src, ",", ".")

	tree, err := NewParser(NewLexer(normalized)).Parse()
	if err != nil {
		return nil, fmt.Errorf("invalid function syntax: %w", err)
	}

	return &Function{
		src:   src,
		tree:  tree,
		deriv: tree.Diff(),
	}, nil
}

// Eval computes f(x).
func (f *Function) Eval(x float64) (float64, error) {
	return f.tree.Eval(x)
}

// Derivative returns f' as a Function of its own, so it can be evaluated,
// printed, or differentiated again.
func (f *Function) Derivative() *Function {
	return &Function{
		src:   f.deriv.String(),
		tree:  f.deriv,
		deriv: f.deriv.Diff(),
	}
}

// String returns the canonical rendering of the parsed expression.
func (f *Function) String() string { return f.tree.String() }

// Source returns the original input string.
func (f *Function) Source() string { return f.src }
