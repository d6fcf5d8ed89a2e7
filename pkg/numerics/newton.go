package numerics

import (
	"errors"
	"fmt"
	"math"
)

// Newton solver errors
var (
	ErrNoConvergence  = errors.New("newton iteration did not converge")
	ErrZeroDerivative = errors.New("zero derivative in newton step")
)

// FuncDeriv evaluates a scalar function and its derivative at x.
type FuncDeriv func(x float64) (f, df float64)

// NewtonParams holds the tolerances and iteration budget for Newton solves.
type NewtonParams struct {
	MaxIterations int     // iteration budget before ErrNoConvergence
	FTol          float64 // absolute residual tolerance
	XTol          float64 // relative step-size tolerance
}

// DefaultNewtonParams returns the solver parameters used when callers have no
// reason to choose their own.
func DefaultNewtonParams() NewtonParams {
	return NewtonParams{
		MaxIterations: 30,
		FTol:          1e-10,
		XTol:          1e-12,
	}
}

// Newton finds a root of fn starting from x0 using Newton-Raphson iteration.
// It returns the last iterate and the number of iterations consumed, together
// with ErrNoConvergence when the iteration budget runs out, so callers may
// retry from a different start.
func Newton(fn FuncDeriv, x0 float64, p NewtonParams) (x float64, iterations int, err error) {
	x = x0
	for i := 0; i < p.MaxIterations; i++ {
		f, df := fn(x)
		if math.Abs(f) <= p.FTol {
			return x, i, nil
		}
		if df == 0 {
			return x, i, fmt.Errorf("%w at x = %g (iteration %d)", ErrZeroDerivative, x, i)
		}
		dx := f / df
		x -= dx
		if math.Abs(dx) <= p.XTol*(1+math.Abs(x)) {
			return x, i + 1, nil
		}
	}
	return x, p.MaxIterations, fmt.Errorf("%w after %d iterations", ErrNoConvergence, p.MaxIterations)
}

// PolynomialRoot finds a root of the polynomial with the given ascending
// coefficients, starting from x0. It is the Newton variant specialised to
// polynomials: function and derivative are both evaluated with Horner's
// method.
func PolynomialRoot(coefs []float64, x0 float64, p NewtonParams) (float64, int, error) {
	deriv := PolynomialDerivative(coefs)
	return Newton(func(x float64) (float64, float64) {
		return Polynomial(coefs, x), Polynomial(deriv, x)
	}, x0, p)
}
