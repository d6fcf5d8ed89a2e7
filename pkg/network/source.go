package network

import (
	"math"

	"github.com/dd0wney/sourcenet/pkg/numerics"
)

// Phase selects one of the two separated flow phases.
type Phase int

const (
	Water Phase = iota
	Steam
)

// String returns the lower-case phase name.
func (p Phase) String() string {
	if p == Steam {
		return "steam"
	}
	return "water"
}

// Separator splits a source's combined two-phase flow into water and steam
// at a fixed separator pressure. The saturation enthalpy fits are polynomial
// approximations in pressure, supplied by the caller's thermodynamic layer.
type Separator struct {
	// Pressure is the separator operating pressure.
	Pressure float64
	// WaterFit evaluates the saturated liquid enthalpy at a pressure.
	WaterFit []float64
	// SteamFit evaluates the saturated vapour enthalpy at a pressure.
	SteamFit []float64
}

// Quality returns the steam mass fraction of flow with the given enthalpy
// flashed at the separator pressure, clamped to [0, 1].
func (sep *Separator) Quality(enthalpy float64) float64 {
	hl := numerics.Polynomial(sep.WaterFit, sep.Pressure)
	hv := numerics.Polynomial(sep.SteamFit, sep.Pressure)
	if hv <= hl {
		if enthalpy >= hv {
			return 1
		}
		return 0
	}
	x := (enthalpy - hl) / (hv - hl)
	return math.Min(1, math.Max(0, x))
}

// EnthalpyOverride supplies a flowing enthalpy for a mesh cell, typically
// from reservoir conditions. Returning false leaves the source's configured
// enthalpy in place.
type EnthalpyOverride func(cellIndex int) (float64, bool)

// SourceParams configures a new Source.
type SourceParams struct {
	Name       string
	OwningRank int
	// CellIndex is the mesh cell this source is completed in. The engine
	// does not interpret it beyond identity.
	CellIndex int
	// Rate is the configured signed flow rate: negative produces from the
	// reservoir, positive injects into it.
	Rate float64
	// Enthalpy is the flowing enthalpy of produced fluid.
	Enthalpy float64
	// InjectionEnthalpy is the enthalpy of injected fluid; meaningful only
	// while the source acts as an injector.
	InjectionEnthalpy float64
	// MaxRate is the maximum injectivity available to reinjectors
	// targeting this source. Zero means the source accepts no
	// redistributed flow.
	MaxRate float64
	// Separator, when set, splits produced flow into water and steam.
	Separator *Separator
	// Override, when set, replaces the flowing enthalpy each step.
	Override EnthalpyOverride
}

// Source is a terminal node tied to a single mesh cell. Production sources
// carry negative rates; injection sources carry positive rates and may
// additionally receive redistributed flow from reinjectors, bounded by
// MaxRate.
type Source struct {
	flows

	cellIndex         int
	baseRate          float64
	enthalpy          float64
	injectionEnthalpy float64
	maxRate           float64
	separator         *Separator
	override          EnthalpyOverride

	// committed tracks injectivity consumed this pass, by the standing
	// configured rate and by reinjector reservations and allocations.
	committed float64
}

// NewSource constructs a source node.
func NewSource(p SourceParams) *Source {
	return &Source{
		flows:             flows{name: p.Name, owningRank: p.OwningRank},
		cellIndex:         p.CellIndex,
		baseRate:          p.Rate,
		enthalpy:          p.Enthalpy,
		injectionEnthalpy: p.InjectionEnthalpy,
		maxRate:           p.MaxRate,
		separator:         p.Separator,
		override:          p.Override,
	}
}

func (s *Source) Kind() Kind { return KindSource }

// CellIndex returns the mesh cell this source is completed in.
func (s *Source) CellIndex() int { return s.cellIndex }

// Enthalpy returns the current flowing enthalpy.
func (s *Source) Enthalpy() float64 { return s.enthalpy }

// MaxRate returns the source's maximum injectivity.
func (s *Source) MaxRate() float64 { return s.maxRate }

// Separated reports whether this source's flow is split by a separator.
func (s *Source) Separated() bool { return s.separator != nil }

// Producing reports whether the source currently flows out of the
// reservoir.
func (s *Source) Producing() bool { return s.rate < 0 }

// SetRate replaces the configured signed rate. Used by network controls.
func (s *Source) SetRate(rate float64) { s.baseRate = rate }

// SetEnthalpy replaces the configured flowing enthalpy. Used by network
// controls.
func (s *Source) SetEnthalpy(h float64) { s.enthalpy = h }

// SetMaxRate replaces the maximum injectivity. Used by network controls.
func (s *Source) SetMaxRate(max float64) { s.maxRate = max }

// SetInjectionEnthalpy replaces the injected-fluid enthalpy. Used by network
// controls.
func (s *Source) SetInjectionEnthalpy(h float64) { s.injectionEnthalpy = h }

// SetSeparatorPressure replaces the separator operating pressure. Used by
// network controls. Sources without a separator ignore it.
func (s *Source) SetSeparatorPressure(p float64) {
	if s.separator != nil {
		s.separator.Pressure = p
	}
}

// update begins a pass on the owning rank: the configured rate is restored,
// any enthalpy override is applied, and separated flows are recomputed.
// Replicas on other ranks are zeroed so every rank holds a valid partial
// contribution for the cross-rank sum.
func (s *Source) update(localRank int) {
	if s.owningRank != localRank {
		s.rate = 0
		s.waterRate = 0
		s.steamRate = 0
		return
	}

	s.rate = s.baseRate
	if s.override != nil {
		if h, ok := s.override(s.cellIndex); ok {
			s.enthalpy = h
		}
	}
	if s.rate > 0 {
		s.enthalpy = s.injectionEnthalpy
	}
	s.separate()
}

// resetCommitment restores the pass's injectivity commitment to the
// standing injection rate. Runs after cross-rank synchronization so every
// rank commits against the same global rates.
func (s *Source) resetCommitment() {
	s.committed = math.Max(0, s.rate)
}

// separate recomputes the water/steam sub-flows from the current rate and
// enthalpy. Sources without a separator carry no separated flow.
func (s *Source) separate() {
	if s.separator == nil {
		s.waterRate = 0
		s.steamRate = 0
		return
	}
	x := s.separator.Quality(s.enthalpy)
	s.steamRate = x * s.rate
	s.waterRate = (1 - x) * s.rate
}

// SeparatedFlows returns the current water and steam sub-flows.
func (s *Source) SeparatedFlows() (water, steam float64) {
	return s.waterRate, s.steamRate
}

// Headroom returns the injectivity still available to reinjectors this
// pass.
func (s *Source) Headroom() float64 {
	return math.Max(0, s.maxRate-s.committed)
}

// reserve holds injectivity during the capacity phase so reinjectors later
// in forward order see reduced headroom.
func (s *Source) reserve(amount float64) { s.committed += amount }

// inject adds redistributed flow of the given phase during the distribution
// phase. reserved is the amount this reinjector already held against the
// source in the capacity phase; the commitment is adjusted by the
// difference.
func (s *Source) inject(phase Phase, amount, reserved float64) {
	s.committed += amount - reserved
	s.rate += amount
	if phase == Steam {
		s.steamRate += amount
	} else {
		s.waterRate += amount
	}
	if amount > 0 && s.rate > 0 {
		s.enthalpy = s.injectionEnthalpy
	}
}

// BlockSize returns the width of a source's unknown block: rate, enthalpy,
// water rate, steam rate.
func (s *Source) BlockSize() int { return 4 }

// Assign writes the source's unknown block into an acquired backing array.
func (s *Source) Assign(data []float64, offset int) error {
	if err := checkBlock(data, offset, s.BlockSize()); err != nil {
		return NewError("assign").Source(s.name).Cause(err).Err()
	}
	data[offset] = s.rate
	data[offset+1] = s.enthalpy
	data[offset+2] = s.waterRate
	data[offset+3] = s.steamRate
	return nil
}
