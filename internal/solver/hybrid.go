// Package solver implements hybrid Newton/bisection root finding on a
// bracketing interval. Each iteration tries a Newton-Raphson step and falls
// back to bisection whenever the step would leave the bracket or the
// derivative is unusable, so the bracketing invariant f(a)*f(b) < 0 holds
// after every update and convergence is guaranteed.
package solver

import (
	"errors"
	"fmt"
	"math"
)

// Func is an abstract real function of one variable.
type Func interface {
	Eval(x float64) (float64, error)
}

// FuncOf adapts a plain function to the Func interface.
type FuncOf func(x float64) (float64, error)

func (f FuncOf) Eval(x float64) (float64, error) { return f(x) }

// Method identifies which update rule produced an iteration's estimate.
type Method string

const (
	Newton    Method = "newton"
	Bisection Method = "bisection"
)

// Decision records why a method was chosen for an iteration.
type Decision string

const (
	// NewtonAccepted — the Newton candidate fell strictly inside the bracket.
	NewtonAccepted Decision = "newton_accepted"
	// SwitchedOvershoot — the Newton candidate escaped the bracket.
	SwitchedOvershoot Decision = "switched_overshoot"
	// SwitchedSingularity — the derivative was near zero or evaluation failed.
	SwitchedSingularity Decision = "switched_singularity"
)

// Iter — one iteration of the hybrid method.
type Iter struct {
	K        int      `json:"k"`
	Method   Method   `json:"method"`
	X        float64  `json:"x"`
	FX       float64  `json:"fx"`
	A        float64  `json:"a"`
	B        float64  `json:"b"`
	Width    float64  `json:"width"`
	Decision Decision `json:"decision"`
}

// Result of a solve: the final estimate and the full ordered history.
// Converged is false when the iteration cap was reached first; the caller
// can inspect the last record's width and residual.
type Result struct {
	Root      float64 `json:"root"`
	FRoot     float64 `json:"froot"`
	Iters     []Iter  `json:"iters"`
	Converged bool    `json:"converged"`
}

// Config holds the convergence thresholds. The epsilons are deliberately
// named configuration rather than inline constants.
type Config struct {
	Tol         float64 // interval-width convergence threshold
	MaxIter     int
	EpsDeriv    float64 // |f'(x)| below this disables the Newton step
	EpsResidual float64 // |f(x)| below this counts as a root
}

// DefaultConfig returns the standard thresholds: tolerance 1e-6, at most
// 100 iterations, 1e-12 guards for derivative and residual.
func DefaultConfig() Config {
	return Config{
		Tol:         1e-6,
		MaxIter:     100,
		EpsDeriv:    1e-12,
		EpsResidual: 1e-12,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Tol <= 0 {
		c.Tol = d.Tol
	}
	if c.MaxIter <= 0 {
		c.MaxIter = d.MaxIter
	}
	if c.EpsDeriv <= 0 {
		c.EpsDeriv = d.EpsDeriv
	}
	if c.EpsResidual <= 0 {
		c.EpsResidual = d.EpsResidual
	}
	return c
}

var (
	// ErrNoBracket — f(a) and f(b) share sign, so no root is guaranteed in
	// the interval. Reported before any iteration is attempted.
	ErrNoBracket = errors.New("solver: interval does not bracket a root, f(a) and f(b) must have opposite signs")

	// ErrInterval — the interval bounds are not ordered a < b.
	ErrInterval = errors.New("solver: interval requires a < b")

	// ErrStopped — special error for forced termination via the callback.
	ErrStopped = errors.New("solver: stopped by callback")
)

// Hybrid runs the adaptive Newton/bisection loop on [a, b].
// onIter is invoked after every iteration; returning ErrStopped aborts the
// run. df may be any evaluator of f' (symbolic or numeric).
func Hybrid(
	f, df Func,
	a, b float64,
	cfg Config,
	onIter func(Iter) error,
) (Result, error) {
	cfg = cfg.withDefaults()

	if !(a < b) {
		return Result{}, ErrInterval
	}

	fa, err := f.Eval(a)
	if err != nil {
		return Result{}, fmt.Errorf("f(a): %w", err)
	}
	fb, err := f.Eval(b)
	if err != nil {
		return Result{}, fmt.Errorf("f(b): %w", err)
	}
	if !isFinite(fa) || !isFinite(fb) {
		return Result{}, errors.New("solver: f is not finite on the interval endpoints")
	}

	// An exact zero at an endpoint is an immediate root, not a failed bracket.
	if fa == 0 {
		return Result{Root: a, FRoot: 0, Converged: true}, nil
	}
	if fb == 0 {
		return Result{Root: b, FRoot: 0, Converged: true}, nil
	}
	// Compare signs directly: the product fa*fb can underflow to zero for
	// subnormal same-sign endpoint values and sneak past a product check.
	if math.Signbit(fa) == math.Signbit(fb) {
		return Result{}, ErrNoBracket
	}

	x := (a + b) / 2
	iters := make([]Iter, 0, cfg.MaxIter)
	converged := false
	var fx float64

	for k := 1; k <= cfg.MaxIter; k++ {
		method, decision := newtonStep(f, df, &x, a, b, cfg.EpsDeriv)

		fx, err = f.Eval(x)
		if (err != nil || !isFinite(fx)) && method == Newton {
			// An accepted Newton point can land outside f's domain even
			// inside the bracket; retry the iteration at the midpoint.
			x = (a + b) / 2
			method, decision = Bisection, SwitchedSingularity
			fx, err = f.Eval(x)
		}
		if err != nil {
			return Result{Root: x, FRoot: fx, Iters: iters}, fmt.Errorf("f(%g): %w", x, err)
		}
		if !isFinite(fx) {
			return Result{Root: x, FRoot: fx, Iters: iters}, fmt.Errorf("f(%g) is not finite", x)
		}

		// Bracket update. f(a) is recomputed each iteration on purpose:
		// it keeps the update correct if a was moved above. A failed or
		// non-finite re-evaluation cannot pick a half safely, so it aborts
		// like a failed midpoint.
		flo, err := f.Eval(a)
		if err != nil {
			return Result{Root: x, FRoot: fx, Iters: iters}, fmt.Errorf("f(%g): %w", a, err)
		}
		if !isFinite(flo) {
			return Result{Root: x, FRoot: fx, Iters: iters}, fmt.Errorf("f(%g) is not finite", a)
		}
		if flo*fx < 0 {
			b = x
		} else {
			a = x
		}

		it := Iter{
			K:        k,
			Method:   method,
			X:        x,
			FX:       fx,
			A:        a,
			B:        b,
			Width:    math.Abs(b - a),
			Decision: decision,
		}
		iters = append(iters, it)

		if onIter != nil {
			if err := onIter(it); err != nil {
				if errors.Is(err, ErrStopped) {
					return Result{Root: x, FRoot: fx, Iters: iters}, ErrStopped
				}
				return Result{Root: x, FRoot: fx, Iters: iters}, err
			}
		}

		if it.Width < cfg.Tol || math.Abs(fx) < cfg.EpsResidual {
			converged = true
			break
		}
	}

	return Result{Root: x, FRoot: fx, Iters: iters, Converged: converged}, nil
}

// newtonStep advances *x by one hybrid step and reports how. The Newton
// candidate is accepted only when it lands strictly inside (a, b); in every
// other case (derivative below epsDeriv, evaluation failure, non-finite
// candidate, overshoot) *x becomes the bracket midpoint.
func newtonStep(f, df Func, x *float64, a, b, epsDeriv float64) (Method, Decision) {
	fx, errF := f.Eval(*x)
	dfx, errD := df.Eval(*x)

	if errF != nil || errD != nil || !isFinite(fx) || !isFinite(dfx) || math.Abs(dfx) < epsDeriv {
		*x = (a + b) / 2
		return Bisection, SwitchedSingularity
	}

	xn := *x - fx/dfx
	if a < xn && xn < b {
		*x = xn
		return Newton, NewtonAccepted
	}

	// NaN/Inf candidates fail the inequality above and land here too.
	*x = (a + b) / 2
	return Bisection, SwitchedOvershoot
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
