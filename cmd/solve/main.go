// Command solve finds a root of f(x) on a bracketing interval and prints
// the per-iteration audit trail.
//
// Usage:
//
//	solve -f "x**2 - 2" -a 0 -b 2 [-tol 1e-6] [-maxiter 100]
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"hybridroot/internal/expr"
	"hybridroot/internal/solver"
)

func main() {
	fn := flag.String("f", "", "function f(x), e.g. \"x**2 - 2\"")
	a := flag.Float64("a", 0, "interval start")
	b := flag.Float64("b", 0, "interval end")
	tol := flag.Float64("tol", solver.DefaultConfig().Tol, "interval-width tolerance")
	maxIter := flag.Int("maxiter", solver.DefaultConfig().MaxIter, "iteration cap")
	flag.Parse()

	if *fn == "" {
		fmt.Fprintln(os.Stderr, "missing -f: a function expression is required")
		flag.Usage()
		os.Exit(2)
	}

	f, err := expr.Parse(*fn)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	df := f.Derivative()

	cfg := solver.DefaultConfig()
	cfg.Tol = *tol
	cfg.MaxIter = *maxIter

	res, err := solver.Hybrid(f, df, *a, *b, cfg, nil)
	if err != nil {
		if errors.Is(err, solver.ErrNoBracket) || errors.Is(err, solver.ErrInterval) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "solve failed:", err)
		os.Exit(1)
	}

	fmt.Printf("f(x)  = %s\n", f)
	fmt.Printf("f'(x) = %s\n\n", df)

	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "k\tmethod\tx\tf(x)\tb-a\tdecision")
	for _, it := range res.Iters {
		fmt.Fprintf(tw, "%d\t%s\t%.10f\t%.3e\t%.3e\t%s\n",
			it.K, it.Method, it.X, it.FX, it.Width, it.Decision)
	}
	tw.Flush()

	fmt.Printf("\nroot ≈ %.10f (f = %.3e, %d iterations", res.Root, res.FRoot, len(res.Iters))
	if !res.Converged {
		fmt.Printf(", did not converge within the cap")
	}
	fmt.Println(")")
}
