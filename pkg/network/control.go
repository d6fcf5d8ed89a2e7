package network

import (
	"fmt"

	"github.com/dd0wney/sourcenet/pkg/numerics"
)

// Interval is one simulation time interval.
type Interval struct {
	Start float64
	End   float64
}

// Duration returns the interval length.
func (iv Interval) Duration() float64 { return iv.End - iv.Start }

// Control mutates node or network parameters for a time interval. Controls
// run after group summation so they see up-to-date totals.
type Control interface {
	Name() string
	Kind() string
	Apply(iv Interval) error
}

// TableMode selects how an IntervalUpdate samples its table over an
// interval.
type TableMode int

const (
	// ModeStep takes the latest breakpoint value at or before the
	// interval start.
	ModeStep TableMode = iota
	// ModeEndpoint linearly interpolates the table at the interval end.
	ModeEndpoint
	// ModeIntegrate averages the piecewise-linear table over the
	// interval.
	ModeIntegrate
)

// String returns the lower-case mode name.
func (m TableMode) String() string {
	switch m {
	case ModeStep:
		return "step"
	case ModeEndpoint:
		return "endpoint"
	case ModeIntegrate:
		return "integrate"
	default:
		return "unknown"
	}
}

// TablePoint is one breakpoint of a piecewise-linear time table.
type TablePoint struct {
	Time  float64
	Value float64
}

// IntervalUpdate drives one node parameter from a time table. The bound
// setter is chosen at configuration time; the control itself is agnostic to
// which parameter it drives.
type IntervalUpdate struct {
	name  string
	table []TablePoint
	mode  TableMode
	set   func(value float64)
}

// NewIntervalUpdate constructs a table-driven control. Table times must be
// strictly increasing and the table must not be empty.
func NewIntervalUpdate(name string, table []TablePoint, mode TableMode, set func(float64)) (*IntervalUpdate, error) {
	if len(table) == 0 {
		return nil, NewError("create").Control(name).Context("empty table").Cause(ErrUnsortedTable).Err()
	}
	times := make([]float64, len(table))
	for i, p := range table {
		times[i] = p.Time
	}
	if !numerics.IsSorted(times) {
		return nil, NewError("create").Control(name).Cause(ErrUnsortedTable).Err()
	}
	for i := 1; i < len(times); i++ {
		if times[i] == times[i-1] {
			return nil, NewError("create").Control(name).
				Context(fmt.Sprintf("repeated time %v", times[i])).
				Cause(ErrUnsortedTable).Err()
		}
	}
	return &IntervalUpdate{name: name, table: table, mode: mode, set: set}, nil
}

// Name returns the control's name.
func (c *IntervalUpdate) Name() string { return c.name }

// Kind returns the control kind tag.
func (c *IntervalUpdate) Kind() string { return "interval_update" }

// Apply samples the table for the interval and writes the result through
// the bound setter.
func (c *IntervalUpdate) Apply(iv Interval) error {
	if iv.End < iv.Start {
		return NewError("apply").Control(c.name).
			Context(fmt.Sprintf("interval [%v, %v] runs backwards", iv.Start, iv.End)).
			Cause(ErrUnsortedTable).Err()
	}

	var value float64
	switch c.mode {
	case ModeStep:
		value = c.stepValue(iv.Start)
	case ModeEndpoint:
		value = c.interpolate(iv.End)
	case ModeIntegrate:
		value = c.average(iv)
	}
	c.set(value)
	return nil
}

// stepValue returns the latest breakpoint value at or before t.
func (c *IntervalUpdate) stepValue(t float64) float64 {
	value := c.table[0].Value
	for _, p := range c.table {
		if p.Time > t {
			break
		}
		value = p.Value
	}
	return value
}

// interpolate returns the piecewise-linear table value at t, extended as
// constant outside the table range.
func (c *IntervalUpdate) interpolate(t float64) float64 {
	first := c.table[0]
	if t <= first.Time {
		return first.Value
	}
	last := c.table[len(c.table)-1]
	if t >= last.Time {
		return last.Value
	}
	for i := 1; i < len(c.table); i++ {
		if t > c.table[i].Time {
			continue
		}
		a, b := c.table[i-1], c.table[i]
		frac := (t - a.Time) / (b.Time - a.Time)
		return a.Value + frac*(b.Value-a.Value)
	}
	return last.Value
}

// average integrates the piecewise-linear table over the interval and
// divides by its duration. Each sub-segment is a degree-one polynomial in
// time; its antiderivative is evaluated at the segment bounds.
func (c *IntervalUpdate) average(iv Interval) float64 {
	if iv.Duration() == 0 {
		return c.interpolate(iv.Start)
	}

	// Segment boundaries: the interval ends plus interior breakpoints.
	times := []float64{iv.Start}
	for _, p := range c.table {
		if p.Time > iv.Start && p.Time < iv.End {
			times = append(times, p.Time)
		}
	}
	times = append(times, iv.End)

	integral := 0.0
	for i := 1; i < len(times); i++ {
		t0, t1 := times[i-1], times[i]
		v0, v1 := c.interpolate(t0), c.interpolate(t1)
		slope := (v1 - v0) / (t1 - t0)
		segment := []float64{v0 - slope*t0, slope}
		anti := numerics.PolynomialIntegral(segment)
		integral += numerics.Polynomial(anti, t1) - numerics.Polynomial(anti, t0)
	}
	return integral / iv.Duration()
}
