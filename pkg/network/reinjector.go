package network

import (
	"math"

	"github.com/dd0wney/sourcenet/pkg/numerics"
)

// LineParams configures one phase's redistribution line.
type LineParams struct {
	// Targets are the injection sources eligible to receive this phase.
	Targets []*Source
	// Order is the priority permutation over Targets used by progressive
	// limiting. The order is a domain rule chosen at configuration time,
	// never inferred.
	Order []int
	// OverflowTo, when set, receives flow this line cannot place. The sink
	// must be registered before any reinjector that references it.
	OverflowTo *Reinjector
}

// ReinjectionLine carries one phase's pass-scoped redistribution state.
type ReinjectionLine struct {
	targets    []*Source
	order      []int
	overflowTo *Reinjector

	capacity float64
	reserved []float64
	routedIn float64
	received float64
	overflow float64
	cells    []int
}

func newLine(p LineParams) ReinjectionLine {
	order := p.Order
	if order == nil {
		order = make([]int, len(p.Targets))
		for i := range order {
			order[i] = i
		}
	}
	return ReinjectionLine{
		targets:    p.Targets,
		order:      order,
		overflowTo: p.OverflowTo,
		reserved:   make([]float64, len(p.Targets)),
	}
}

// spare returns the capacity not consumed by this line's own reservations,
// available to feeders that overflow into it.
func (l *ReinjectionLine) spare() float64 {
	held := 0.0
	for _, r := range l.reserved {
		held += r
	}
	return math.Max(0, l.capacity-held)
}

// ReinjectorParams configures a new Reinjector.
type ReinjectorParams struct {
	Name       string
	OwningRank int
	// Inputs are the separated sources and groups whose produced water and
	// steam this reinjector redistributes. Flow from another reinjector
	// arrives through that reinjector's OverflowTo link, not as an input.
	Inputs []Node
	Water  LineParams
	Steam  LineParams
}

// Reinjector redistributes produced water and steam across injection
// targets, each phase limited progressively by the targets' remaining
// injectivity. Flow that cannot be placed follows the overflow link when one
// is configured and is otherwise reported as overflow.
//
// The two-phase protocol over the network's reinjector collection:
// Capacity runs in registration order, Distribute in exact reverse, so a
// feeder's routed overflow reaches its sink before the sink distributes.
type Reinjector struct {
	flows

	inputs []Node
	water  ReinjectionLine
	steam  ReinjectionLine

	pendingWater float64
	pendingSteam float64
}

// NewReinjector constructs a reinjector node.
func NewReinjector(p ReinjectorParams) *Reinjector {
	return &Reinjector{
		flows:  flows{name: p.Name, owningRank: p.OwningRank},
		inputs: p.Inputs,
		water:  newLine(p.Water),
		steam:  newLine(p.Steam),
	}
}

func (r *Reinjector) Kind() Kind { return KindReinjector }

// Inputs returns the nodes feeding this reinjector.
func (r *Reinjector) Inputs() []Node { return r.inputs }

func (r *Reinjector) line(phase Phase) *ReinjectionLine {
	if phase == Steam {
		return &r.steam
	}
	return &r.water
}

func (r *Reinjector) pending(phase Phase) float64 {
	if phase == Steam {
		return r.pendingSteam
	}
	return r.pendingWater
}

// produced returns the production-side magnitude of a signed flow.
func produced(rate float64) float64 {
	return math.Max(0, -rate)
}

// Capacity runs the forward phase: pass state is reset, incoming production
// is summed from the inputs, the absorbable rate per phase is computed from
// target headroom plus any chained sink's spare capacity, and the known
// incoming is reserved against the targets so reinjectors later in forward
// order see reduced headroom.
func (r *Reinjector) Capacity() {
	r.pendingWater = 0
	r.pendingSteam = 0
	for _, in := range r.inputs {
		r.pendingWater += produced(in.WaterRate())
		r.pendingSteam += produced(in.SteamRate())
	}
	r.capacityLine(Water)
	r.capacityLine(Steam)
}

func (r *Reinjector) capacityLine(phase Phase) {
	l := r.line(phase)
	l.routedIn = 0
	l.received = 0
	l.overflow = 0
	l.cells = nil

	headroom := make([]float64, len(l.targets))
	total := 0.0
	for i, t := range l.targets {
		headroom[i] = t.Headroom()
		total += headroom[i]
	}
	l.capacity = total
	if l.overflowTo != nil {
		l.capacity += l.overflowTo.line(phase).spare()
	}

	l.reserved = numerics.LimitProgressive(headroom, r.pending(phase), l.order)
	for i, t := range l.targets {
		t.reserve(l.reserved[i])
	}
}

// Distribute runs the reverse phase: incoming flow (the input production
// plus any overflow routed in by feeders distributed earlier in the reverse
// pass) is allocated across the targets by progressive limiting, with each
// target's own capacity-phase reservation returned to its pool. Flow left
// over follows the overflow link or is recorded as overflow.
func (r *Reinjector) Distribute() {
	r.distributeLine(Water)
	r.distributeLine(Steam)
	r.waterRate = r.water.received
	r.steamRate = r.steam.received
	r.rate = r.waterRate + r.steamRate
}

func (r *Reinjector) distributeLine(phase Phase) {
	l := r.line(phase)
	incoming := r.pending(phase) + l.routedIn
	l.received = incoming

	limits := make([]float64, len(l.targets))
	for i, t := range l.targets {
		limits[i] = t.Headroom() + l.reserved[i]
	}
	alloc := numerics.LimitProgressive(limits, incoming, l.order)

	placed := 0.0
	l.cells = nil
	for i, t := range l.targets {
		t.inject(phase, alloc[i], l.reserved[i])
		l.reserved[i] = 0
		if alloc[i] > 0 {
			l.cells = append(l.cells, t.CellIndex())
			placed += alloc[i]
		}
	}

	leftover := math.Max(0, incoming-placed)
	if leftover == 0 {
		return
	}
	if l.overflowTo != nil {
		l.overflowTo.line(phase).routedIn += leftover
		return
	}
	l.overflow = leftover
}

// Incoming returns the water and steam rates this reinjector processed in
// the last distribution, including routed-in overflow.
func (r *Reinjector) Incoming() (water, steam float64) {
	return r.water.received, r.steam.received
}

// Capacities returns the absorbable water and steam rates computed by the
// last capacity phase.
func (r *Reinjector) Capacities() (water, steam float64) {
	return r.water.capacity, r.steam.capacity
}

// Overflow returns the water and steam rates the last distribution could
// not place.
func (r *Reinjector) Overflow() (water, steam float64) {
	return r.water.overflow, r.steam.overflow
}

// CellIndices returns the mesh cells that received nonzero flow of the
// given phase in the last distribution. Membership is significant, order is
// not.
func (r *Reinjector) CellIndices(phase Phase) []int {
	return r.line(phase).cells
}

// TargetCells returns the mesh cells of all configured targets of the given
// phase, whether or not they received flow.
func (r *Reinjector) TargetCells(phase Phase) []int {
	l := r.line(phase)
	cells := make([]int, len(l.targets))
	for i, t := range l.targets {
		cells[i] = t.CellIndex()
	}
	return cells
}

// OverflowSink returns the reinjector this line overflows to, or nil.
func (r *Reinjector) OverflowSink(phase Phase) *Reinjector {
	return r.line(phase).overflowTo
}

// BlockSize returns the width of a reinjector's unknown block: rate, water
// rate, steam rate, water capacity, steam capacity, water overflow, steam
// overflow.
func (r *Reinjector) BlockSize() int { return 7 }

// Assign writes the reinjector's unknown block into an acquired backing
// array.
func (r *Reinjector) Assign(data []float64, offset int) error {
	if err := checkBlock(data, offset, r.BlockSize()); err != nil {
		return NewError("assign").Reinjector(r.name).Cause(err).Err()
	}
	data[offset] = r.rate
	data[offset+1] = r.waterRate
	data[offset+2] = r.steamRate
	data[offset+3] = r.water.capacity
	data[offset+4] = r.steam.capacity
	data[offset+5] = r.water.overflow
	data[offset+6] = r.steam.overflow
	return nil
}
