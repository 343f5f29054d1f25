// Package ssq defines sum-of-squares objectives and their minimizers.
//
// A Function maps a parameter vector p to a residual vector e(p); the
// objective is sum_i e_i(p)^2. Minimizers work on the residuals, which
// lets Gauss-Newton methods approximate the Hessian by 2 J'J.
//
// # Minimizers
//
// LevenbergMarquardt is the default minimizer:
//
//	lm := ssq.NewLevenbergMarquardt()
//	lm.SetFunctionPrecision(1e-9)
//	converged, err := lm.Minimize(ctx, fn, start)
//	best := lm.Result()
//
// Gonum drives any gonum/optimize method on the scalar objective:
//
//	gm := ssq.NewGonum(&optimize.NelderMead{})
//	converged, err := gm.Minimize(ctx, fn, start)
//
// Both reject candidates outside the parameter domain and record the
// objective after each accepted iteration in Trace. The context is checked
// between iterations.
//
// # Derivatives
//
// Functions implementing Differentiable provide their own Jacobian.
// Otherwise NumericalJacobian uses forward differences with the steps of
// the parameter domain, optionally evaluating the columns concurrently.
package ssq
