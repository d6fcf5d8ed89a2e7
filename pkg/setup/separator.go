package setup

import (
	"fmt"

	"github.com/dd0wney/sourcenet/pkg/logging"
	"github.com/dd0wney/sourcenet/pkg/network"
	"github.com/dd0wney/sourcenet/pkg/numerics"
)

// separatorFrom builds a source's separator. A configured pressure is taken
// as-is; a design quality is converted to the pressure at which flow with
// the reference enthalpy flashes to exactly that quality.
func (b *builder) separatorFrom(cfg *SourceConfig) (*network.Separator, error) {
	sc := cfg.Separator
	if sc == nil {
		return nil, nil
	}
	sep := &network.Separator{
		Pressure: sc.Pressure,
		WaterFit: append([]float64(nil), sc.WaterFit...),
		SteamFit: append([]float64(nil), sc.SteamFit...),
	}
	if sc.DesignQuality == nil {
		if sc.Pressure <= 0 {
			return nil, network.NewError("build").Source(cfg.Name).
				Context("no operating pressure").Cause(ErrSeparatorSpec).Err()
		}
		return sep, nil
	}
	if sc.ReferenceEnthalpy <= 0 || sc.InitialPressure <= 0 {
		return nil, network.NewError("build").Source(cfg.Name).
			Context("design quality set without reference enthalpy and initial pressure").
			Cause(ErrSeparatorSpec).Err()
	}
	p, err := b.solveSeparatorPressure(cfg.Name, *sc.DesignQuality, sc)
	if err != nil {
		return nil, err
	}
	sep.Pressure = p
	return sep, nil
}

// solveSeparatorPressure finds the pressure satisfying
//
//	(1-x)*hl(P) + x*hv(P) = href
//
// where hl and hv are the line's saturation enthalpy fits, by Newton
// iteration on the blended polynomial starting from the initial pressure.
func (b *builder) solveSeparatorPressure(name string, quality float64, sc *SeparatorConfig) (float64, error) {
	n := len(sc.WaterFit)
	if len(sc.SteamFit) > n {
		n = len(sc.SteamFit)
	}
	coefs := make([]float64, n)
	for i := range coefs {
		var w, s float64
		if i < len(sc.WaterFit) {
			w = sc.WaterFit[i]
		}
		if i < len(sc.SteamFit) {
			s = sc.SteamFit[i]
		}
		coefs[i] = -((1-quality)*w + quality*s)
	}
	coefs[0] += sc.ReferenceEnthalpy

	p, iterations, err := numerics.PolynomialRoot(coefs, sc.InitialPressure, numerics.DefaultNewtonParams())
	if b.opts.Metrics != nil {
		b.opts.Metrics.RecordNewton(iterations, err == nil)
	}
	if err != nil {
		return 0, network.NewError("build").Source(name).
			Context(fmt.Sprintf("separator pressure for design quality %g", quality)).
			Cause(err).Err()
	}
	b.log.Debug("separator pressure solved",
		logging.Node(name),
		logging.Float64("pressure", p),
		logging.Float64("quality", quality),
		logging.Int("iterations", iterations))
	return p, nil
}
