package numerics

// Polynomial evaluates a polynomial at x using Horner's method. Coefficients
// are in ascending order: coefs[i] multiplies x^i. An empty coefficient slice
// evaluates to zero.
func Polynomial(coefs []float64, x float64) float64 {
	if len(coefs) == 0 {
		return 0
	}
	p := coefs[len(coefs)-1]
	for i := len(coefs) - 2; i >= 0; i-- {
		p = p*x + coefs[i]
	}
	return p
}

// PolynomialDerivative returns the coefficients of the derivative polynomial.
// The result is one order lower than the input; differentiating a constant
// (or empty) polynomial yields nil.
func PolynomialDerivative(coefs []float64) []float64 {
	if len(coefs) <= 1 {
		return nil
	}
	deriv := make([]float64, len(coefs)-1)
	for i := 1; i < len(coefs); i++ {
		deriv[i-1] = float64(i) * coefs[i]
	}
	return deriv
}

// PolynomialIntegral returns the coefficients of the antiderivative with zero
// constant term. The result is one order higher than the input.
func PolynomialIntegral(coefs []float64) []float64 {
	integ := make([]float64, len(coefs)+1)
	for i, c := range coefs {
		integ[i+1] = c / float64(i+1)
	}
	return integ
}
