package network

import (
	"errors"
	"math"
	"testing"
)

// constantSeparator flashes at fixed saturation enthalpies 500 and 2500, so
// quality is (h - 500) / 2000.
func constantSeparator() *Separator {
	return &Separator{
		Pressure: 5e5,
		WaterFit: []float64{500},
		SteamFit: []float64{2500},
	}
}

func TestSeparatorQuality(t *testing.T) {
	sep := constantSeparator()

	tests := []struct {
		name     string
		enthalpy float64
		want     float64
	}{
		{"AllWater", 500, 0},
		{"LowQuality", 900, 0.2},
		{"MidQuality", 1500, 0.5},
		{"HighQuality", 2100, 0.8},
		{"AllSteam", 2500, 1},
		{"BelowSaturatedLiquid", 200, 0},
		{"AboveSaturatedVapour", 3000, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sep.Quality(tt.enthalpy)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Quality(%v) = %v, want %v", tt.enthalpy, got, tt.want)
			}
		})
	}
}

func TestSeparatorQualityPressureFit(t *testing.T) {
	// Linear fits: hl = 400 + 2e-4 P, hv = 2800 - 2e-4 P. At P = 10e5:
	// hl = 600, hv = 2600.
	sep := &Separator{
		Pressure: 10e5,
		WaterFit: []float64{400, 2e-4},
		SteamFit: []float64{2800, -2e-4},
	}
	got := sep.Quality(1600)
	want := 0.5
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Quality(1600) = %v, want %v", got, want)
	}
}

func TestSeparatorDegenerateFit(t *testing.T) {
	sep := &Separator{Pressure: 1e5, WaterFit: []float64{1000}, SteamFit: []float64{1000}}
	if got := sep.Quality(900); got != 0 {
		t.Errorf("Quality below collapsed saturation = %v, want 0", got)
	}
	if got := sep.Quality(1100); got != 1 {
		t.Errorf("Quality above collapsed saturation = %v, want 1", got)
	}
}

func TestSourceUpdateSeparates(t *testing.T) {
	s := NewSource(SourceParams{
		Name:       "pw1",
		OwningRank: 0,
		CellIndex:  7,
		Rate:       -10,
		Enthalpy:   900,
		Separator:  constantSeparator(),
	})

	s.update(0)

	if s.Rate() != -10 {
		t.Errorf("Rate() = %v, want -10", s.Rate())
	}
	water, steam := s.SeparatedFlows()
	if math.Abs(water-(-8)) > 1e-12 || math.Abs(steam-(-2)) > 1e-12 {
		t.Errorf("SeparatedFlows() = (%v, %v), want (-8, -2)", water, steam)
	}
	if !s.Producing() {
		t.Error("Producing() = false for a negative rate")
	}
}

func TestSourceUpdateZeroesReplica(t *testing.T) {
	s := NewSource(SourceParams{
		Name:       "pw1",
		OwningRank: 1,
		Rate:       -10,
		Enthalpy:   900,
		Separator:  constantSeparator(),
	})

	// Local rank 0 does not own this source.
	s.update(0)

	if s.Rate() != 0 || s.WaterRate() != 0 || s.SteamRate() != 0 {
		t.Errorf("replica flows = (%v, %v, %v), want zeros",
			s.Rate(), s.WaterRate(), s.SteamRate())
	}
}

func TestSourceEnthalpyOverride(t *testing.T) {
	reservoir := map[int]float64{3: 1300}
	s := NewSource(SourceParams{
		Name:      "pw2",
		CellIndex: 3,
		Rate:      -10,
		Enthalpy:  900,
		Separator: constantSeparator(),
		Override: func(cell int) (float64, bool) {
			h, ok := reservoir[cell]
			return h, ok
		},
	})

	s.update(0)

	if s.Enthalpy() != 1300 {
		t.Errorf("Enthalpy() = %v, want 1300 from override", s.Enthalpy())
	}
	water, steam := s.SeparatedFlows()
	if math.Abs(water-(-6)) > 1e-12 || math.Abs(steam-(-4)) > 1e-12 {
		t.Errorf("SeparatedFlows() = (%v, %v), want (-6, -4)", water, steam)
	}
}

func TestSourceInjectorUsesInjectionEnthalpy(t *testing.T) {
	s := NewSource(SourceParams{
		Name:              "iw1",
		Rate:              2,
		Enthalpy:          900,
		InjectionEnthalpy: 350,
	})

	s.update(0)

	if s.Enthalpy() != 350 {
		t.Errorf("Enthalpy() = %v, want injection enthalpy 350", s.Enthalpy())
	}
}

func TestSourceCommitmentAndInjection(t *testing.T) {
	s := NewSource(SourceParams{
		Name:              "iw1",
		CellIndex:         2,
		MaxRate:           10,
		InjectionEnthalpy: 500,
	})
	s.update(0)
	s.resetCommitment()

	if got := s.Headroom(); got != 10 {
		t.Fatalf("Headroom() = %v, want 10", got)
	}

	s.reserve(4)
	if got := s.Headroom(); got != 6 {
		t.Errorf("Headroom() after reserve = %v, want 6", got)
	}

	// Distribution allocates 7 against a 4 reservation.
	s.inject(Water, 7, 4)
	if got := s.Headroom(); got != 3 {
		t.Errorf("Headroom() after inject = %v, want 3", got)
	}
	if s.Rate() != 7 || s.WaterRate() != 7 || s.SteamRate() != 0 {
		t.Errorf("flows = (%v, %v, %v), want (7, 7, 0)",
			s.Rate(), s.WaterRate(), s.SteamRate())
	}
	if s.Enthalpy() != 500 {
		t.Errorf("Enthalpy() = %v, want injection enthalpy 500", s.Enthalpy())
	}
}

func TestSourceStandingInjectionConsumesHeadroom(t *testing.T) {
	s := NewSource(SourceParams{Name: "iw2", Rate: 3, MaxRate: 10})
	s.update(0)
	s.resetCommitment()

	if got := s.Headroom(); got != 7 {
		t.Errorf("Headroom() = %v, want 7 with standing rate 3", got)
	}
}

func TestSourceAssign(t *testing.T) {
	s := NewSource(SourceParams{
		Name:      "pw1",
		Rate:      -10,
		Enthalpy:  900,
		Separator: constantSeparator(),
	})
	s.update(0)

	data := make([]float64, 12)
	if err := s.Assign(data, 4); err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}
	want := []float64{-10, 900, -8, -2}
	for i, w := range want {
		if math.Abs(data[4+i]-w) > 1e-12 {
			t.Errorf("data[%d] = %v, want %v", 4+i, data[4+i], w)
		}
	}

	err := s.Assign(data, 10)
	if !errors.Is(err, ErrBlockOutOfRange) {
		t.Errorf("Assign out of range error = %v, want ErrBlockOutOfRange", err)
	}
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Assign error type = %T, want *NetworkError", err)
	}
	if netErr.Entity != "source" || netErr.Name != "pw1" {
		t.Errorf("error identifies %s %q, want source %q", netErr.Entity, netErr.Name, "pw1")
	}
}
