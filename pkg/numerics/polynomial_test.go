package numerics

import (
	"math"
	"testing"
)

func TestPolynomial(t *testing.T) {
	tests := []struct {
		name  string
		coefs []float64
		x     float64
		want  float64
	}{
		{"empty", nil, 3, 0},
		{"constant", []float64{7}, 100, 7},
		{"linear", []float64{1, 2}, 3, 7},
		{"quadratic", []float64{1, -2, 1}, 3, 4}, // (x-1)^2
		{"cubic at zero", []float64{5, 4, 3, 2}, 0, 5},
		{"negative x", []float64{0, 0, 1}, -2, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Polynomial(tt.coefs, tt.x); got != tt.want {
				t.Errorf("Polynomial(%v, %g) = %g, want %g", tt.coefs, tt.x, got, tt.want)
			}
		})
	}
}

func TestPolynomialDerivative(t *testing.T) {
	tests := []struct {
		name  string
		coefs []float64
		want  []float64
	}{
		{"empty", nil, nil},
		{"constant", []float64{4}, nil},
		{"linear", []float64{1, 3}, []float64{3}},
		{"cubic", []float64{1, 2, 3, 4}, []float64{2, 6, 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PolynomialDerivative(tt.coefs)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("coefficient %d: got %g, want %g", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPolynomialIntegral(t *testing.T) {
	got := PolynomialIntegral([]float64{2, 6, 12})
	want := []float64{0, 2, 3, 4}
	floatsEqual(t, got, want, 0)
}

func TestPolynomialIntegral_DerivativeRoundTrip(t *testing.T) {
	coefs := []float64{3.5, -1.25, 0.75, 2}
	back := PolynomialDerivative(PolynomialIntegral(coefs))
	floatsEqual(t, back, coefs, 1e-15)
}

func TestPolynomialIntegral_DefiniteIntegral(t *testing.T) {
	// Integral of 3x^2 over [1,3] is 26.
	integ := PolynomialIntegral([]float64{0, 0, 3})
	got := Polynomial(integ, 3) - Polynomial(integ, 1)
	if math.Abs(got-26) > 1e-12 {
		t.Errorf("definite integral = %g, want 26", got)
	}
}
