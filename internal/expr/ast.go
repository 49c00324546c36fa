package expr

import (
	"fmt"
	"math"
	"strconv"
)

// Expr is a node of a parsed expression over the single free variable x.
// Eval returns an explicit error on domain failures (log of a non-positive
// value, sqrt of a negative, division by zero and the like) instead of
// silently producing NaN; callers decide how to recover.
type Expr interface {
	Eval(x float64) (float64, error)
	Diff() Expr
	String() string
}

// Num — numeric literal.

type Num struct{ Value float64 }

func (n *Num) Eval(float64) (float64, error) { return n.Value, nil }
func (n *Num) Diff() Expr                    { return &Num{Value: 0} }
func (n *Num) String() string {
	if n.Value < 0 {
		return "(" + strconv.FormatFloat(n.Value, 'g', -1, 64) + ")"
	}
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

// Var — the free variable x.

type Var struct{}

func (v *Var) Eval(x float64) (float64, error) { return x, nil }
func (v *Var) Diff() Expr                      { return &Num{Value: 1} }
func (v *Var) String() string                  { return "x" }

// Neg — unary minus.

type Neg struct{ Operand Expr }

func (n *Neg) Eval(x float64) (float64, error) {
	v, err := n.Operand.Eval(x)
	if err != nil {
		return math.NaN(), err
	}
	return -v, nil
}

func (n *Neg) Diff() Expr { return neg(n.Operand.Diff()) }

func (n *Neg) String() string { return "-" + parenthesize(n.Operand) }

// Binary — one of + - * / ^.

type Binary struct {
	Op          byte
	Left, Right Expr
}

func (b *Binary) Eval(x float64) (float64, error) {
	l, err := b.Left.Eval(x)
	if err != nil {
		return math.NaN(), err
	}
	r, err := b.Right.Eval(x)
	if err != nil {
		return math.NaN(), err
	}
	switch b.Op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		if r == 0 {
			return math.NaN(), fmt.Errorf("division by zero at x=%g", x)
		}
		return l / r, nil
	case '^':
		v := math.Pow(l, r)
		if math.IsNaN(v) {
			return math.NaN(), fmt.Errorf("%g^%g is undefined", l, r)
		}
		return v, nil
	}
	return math.NaN(), fmt.Errorf("unknown operator %q", string(b.Op))
}

func (b *Binary) Diff() Expr {
	du := b.Left.Diff()
	dv := b.Right.Diff()
	switch b.Op {
	case '+':
		return add(du, dv)
	case '-':
		return sub(du, dv)
	case '*':
		// product rule: u'v + uv'
		return add(mul(du, b.Right), mul(b.Left, dv))
	case '/':
		// quotient rule: (u'v - uv') / v^2
		return div(sub(mul(du, b.Right), mul(b.Left, dv)), pow(b.Right, &Num{Value: 2}))
	case '^':
		if n, ok := b.Right.(*Num); ok {
			// d(u^n) = n * u^(n-1) * u'
			return mul(mul(b.Right, pow(b.Left, &Num{Value: n.Value - 1})), du)
		}
		if _, ok := b.Left.(*Num); ok {
			// d(a^v) = a^v * ln(a) * v'
			return mul(mul(b, call("log", b.Left)), dv)
		}
		// general case: u^v * (v' * ln(u) + v * u' / u)
		return mul(b, add(mul(dv, call("log", b.Left)), div(mul(b.Right, du), b.Left)))
	}
	return &Num{Value: math.NaN()}
}

func (b *Binary) String() string {
	return parenthesize(b.Left) + string(b.Op) + parenthesize(b.Right)
}

// Call — application of one of the closed set of named functions.

type Call struct {
	Name string
	Arg  Expr
}

func (c *Call) Eval(x float64) (float64, error) {
	v, err := c.Arg.Eval(x)
	if err != nil {
		return math.NaN(), err
	}
	switch c.Name {
	case "sin":
		return math.Sin(v), nil
	case "cos":
		return math.Cos(v), nil
	case "tan":
		return math.Tan(v), nil
	case "asin":
		if v < -1 || v > 1 {
			return math.NaN(), fmt.Errorf("asin(%g) is undefined", v)
		}
		return math.Asin(v), nil
	case "acos":
		if v < -1 || v > 1 {
			return math.NaN(), fmt.Errorf("acos(%g) is undefined", v)
		}
		return math.Acos(v), nil
	case "atan":
		return math.Atan(v), nil
	case "sinh":
		return math.Sinh(v), nil
	case "cosh":
		return math.Cosh(v), nil
	case "tanh":
		return math.Tanh(v), nil
	case "exp":
		return math.Exp(v), nil
	case "log", "ln":
		if v <= 0 {
			return math.NaN(), fmt.Errorf("log(%g) is undefined", v)
		}
		return math.Log(v), nil
	case "sqrt":
		if v < 0 {
			return math.NaN(), fmt.Errorf("sqrt(%g) is undefined", v)
		}
		return math.Sqrt(v), nil
	case "abs":
		return math.Abs(v), nil
	}
	return math.NaN(), fmt.Errorf("unknown function %q", c.Name)
}

func (c *Call) Diff() Expr {
	u := c.Arg
	du := u.Diff()
	var outer Expr
	switch c.Name {
	case "sin":
		outer = call("cos", u)
	case "cos":
		outer = neg(call("sin", u))
	case "tan":
		// 1 / cos(u)^2
		outer = div(&Num{Value: 1}, pow(call("cos", u), &Num{Value: 2}))
	case "asin":
		outer = div(&Num{Value: 1}, call("sqrt", sub(&Num{Value: 1}, pow(u, &Num{Value: 2}))))
	case "acos":
		outer = neg(div(&Num{Value: 1}, call("sqrt", sub(&Num{Value: 1}, pow(u, &Num{Value: 2})))))
	case "atan":
		outer = div(&Num{Value: 1}, add(&Num{Value: 1}, pow(u, &Num{Value: 2})))
	case "sinh":
		outer = call("cosh", u)
	case "cosh":
		outer = call("sinh", u)
	case "tanh":
		outer = sub(&Num{Value: 1}, pow(call("tanh", u), &Num{Value: 2}))
	case "exp":
		outer = call("exp", u)
	case "log", "ln":
		outer = div(&Num{Value: 1}, u)
	case "sqrt":
		outer = div(&Num{Value: 1}, mul(&Num{Value: 2}, call("sqrt", u)))
	case "abs":
		// d|u| = u/|u| * u'; undefined at u = 0, which Eval reports
		// as division by zero.
		outer = div(u, call("abs", u))
	default:
		outer = &Num{Value: math.NaN()}
	}
	return mul(outer, du)
}

func (c *Call) String() string { return c.Name + "(" + c.Arg.String() + ")" }

// Constructors fold constants and strip 0/1 identities so that derivative
// trees stay close to what a human would write down.

func add(l, r Expr) Expr {
	if ln, ok := l.(*Num); ok {
		if rn, ok := r.(*Num); ok {
			return &Num{Value: ln.Value + rn.Value}
		}
		if ln.Value == 0 {
			return r
		}
	}
	if rn, ok := r.(*Num); ok && rn.Value == 0 {
		return l
	}
	return &Binary{Op: '+', Left: l, Right: r}
}

func sub(l, r Expr) Expr {
	if ln, ok := l.(*Num); ok {
		if rn, ok := r.(*Num); ok {
			return &Num{Value: ln.Value - rn.Value}
		}
		if ln.Value == 0 {
			return neg(r)
		}
	}
	if rn, ok := r.(*Num); ok && rn.Value == 0 {
		return l
	}
	return &Binary{Op: '-', Left: l, Right: r}
}

func mul(l, r Expr) Expr {
	if ln, ok := l.(*Num); ok {
		if rn, ok := r.(*Num); ok {
			return &Num{Value: ln.Value * rn.Value}
		}
		if ln.Value == 0 {
			return &Num{Value: 0}
		}
		if ln.Value == 1 {
			return r
		}
	}
	if rn, ok := r.(*Num); ok {
		if rn.Value == 0 {
			return &Num{Value: 0}
		}
		if rn.Value == 1 {
			return l
		}
	}
	return &Binary{Op: '*', Left: l, Right: r}
}

func div(l, r Expr) Expr {
	if ln, ok := l.(*Num); ok && ln.Value == 0 {
		return &Num{Value: 0}
	}
	if rn, ok := r.(*Num); ok && rn.Value == 1 {
		return l
	}
	return &Binary{Op: '/', Left: l, Right: r}
}

func pow(l, r Expr) Expr {
	if rn, ok := r.(*Num); ok {
		if rn.Value == 0 {
			return &Num{Value: 1}
		}
		if rn.Value == 1 {
			return l
		}
	}
	return &Binary{Op: '^', Left: l, Right: r}
}

func neg(e Expr) Expr {
	if n, ok := e.(*Num); ok {
		return &Num{Value: -n.Value}
	}
	if inner, ok := e.(*Neg); ok {
		return inner.Operand
	}
	return &Neg{Operand: e}
}

func call(name string, arg Expr) Expr { return &Call{Name: name, Arg: arg} }

func parenthesize(e Expr) string {
	switch e.(type) {
	case *Binary, *Neg:
		return "(" + e.String() + ")"
	}
	return e.String()
}
