package network

import (
	"fmt"
	"time"

	"github.com/dd0wney/sourcenet/pkg/dist"
	"github.com/dd0wney/sourcenet/pkg/logging"
	"github.com/dd0wney/sourcenet/pkg/metrics"
)

// SyncFunc merges cross-rank partial flow totals between the local forward
// pass and the capacity phase. Implementations typically all-reduce the
// values from Totals and write the result back through SetTotals. Running
// the capacity phase on unmerged partial sums is a correctness bug.
type SyncFunc func(n *SourceNetwork) error

// EquationBases locate each node category's residual equations within the
// global equation numbering. The caller lays out the equation space (mesh
// cell equations first, then the network categories) and supplies the first
// index of each category's span.
type EquationBases struct {
	Source     int
	Group      int
	Reinjector int
}

// Params configures a new SourceNetwork.
type Params struct {
	// ID identifies this network instance in logs.
	ID string
	// LocalRank is the rank of this process.
	LocalRank int
	// EquationBases locate the network equations globally.
	EquationBases EquationBases
	// Sync merges cross-rank totals. Nil is valid for single-rank runs.
	Sync SyncFunc
	// Logger receives engine logging. Nil discards output.
	Logger logging.Logger
	// Metrics receives engine instrumentation. Nil disables it.
	Metrics *metrics.Registry
}

// SourceNetwork is the aggregate root of the surface flow graph: it owns the
// ordered node collections, the derived separated-source collection, the
// network controls, the dependency set and the three distributed unknown
// vectors, and it orchestrates the multi-pass evaluation protocol each
// timestep.
//
// Topology is immutable once Finalize has run; only values mutate across
// timesteps. The network is destroyed explicitly, releasing the vectors and
// node storage.
type SourceNetwork struct {
	id        string
	localRank int
	eqBases   EquationBases

	sources     *List[*Source]
	groups      *List[*Group]
	reinjectors *List[*Reinjector]
	separated   []*Source
	controls    []Control
	byName      map[string]Node

	deps *DependencySet

	sourceSec *dist.Section
	groupSec  *dist.Section
	reinjSec  *dist.Section
	sourceVec *dist.Vector
	groupVec  *dist.Vector
	reinjVec  *dist.Vector

	globalUnknowns map[Kind]int

	sync    SyncFunc
	log     logging.Logger
	metrics *metrics.Registry

	finalized bool
	destroyed bool
	steps     uint64
}

// New constructs an empty network. Nodes and controls are registered in
// configuration order, then Finalize builds the distributed storage and the
// dependency set.
func New(p Params) *SourceNetwork {
	log := p.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &SourceNetwork{
		id:          p.ID,
		localRank:   p.LocalRank,
		eqBases:     p.EquationBases,
		sources:     NewList[*Source](0),
		groups:      NewList[*Group](0),
		reinjectors: NewList[*Reinjector](0),
		byName:      make(map[string]Node),
		deps:        NewDependencySet(),
		sync:        p.Sync,
		log:         log.With(logging.Component("network"), logging.Network(p.ID)),
		metrics:     p.Metrics,
	}
}

// ID returns the network instance identifier.
func (n *SourceNetwork) ID() string { return n.id }

// LocalRank returns the rank of this process.
func (n *SourceNetwork) LocalRank() int { return n.localRank }

// register checks shared registration preconditions and claims the name.
func (n *SourceNetwork) register(node Node) error {
	if n.destroyed {
		return NewError("register").Node(node).Cause(ErrNetworkDestroyed).Err()
	}
	if n.finalized {
		return NewError("register").Node(node).Cause(ErrFinalized).Err()
	}
	if _, exists := n.byName[node.Name()]; exists {
		return NewError("register").Node(node).Cause(ErrDuplicateName).Err()
	}
	n.byName[node.Name()] = node
	return nil
}

// registered reports whether the exact node handle has been registered.
func (n *SourceNetwork) registered(node Node) bool {
	return n.byName[node.Name()] == node
}

// AddSource registers a source and returns its stable collection index.
// Sources with separators also join the derived separated collection.
func (n *SourceNetwork) AddSource(s *Source) (int, error) {
	if err := n.register(s); err != nil {
		return 0, err
	}
	s.SetLocalIndex(-1)
	if s.Separated() {
		n.separated = append(n.separated, s)
	}
	return n.sources.Append(s), nil
}

// AddGroup registers a group. Every member must already be registered, and
// members may only be sources or other groups.
func (n *SourceNetwork) AddGroup(g *Group) (int, error) {
	for _, m := range g.Members() {
		if m.Kind() == KindReinjector {
			return 0, NewError("register").Group(g.Name()).
				Context(fmt.Sprintf("member %q is a reinjector", m.Name())).
				Cause(ErrNodeNotFound).Err()
		}
		if !n.registered(m) {
			return 0, NewError("register").Group(g.Name()).
				Context(fmt.Sprintf("member %q", m.Name())).
				Cause(ErrNodeNotFound).Err()
		}
	}
	if err := n.register(g); err != nil {
		return 0, err
	}
	g.SetLocalIndex(-1)
	return n.groups.Append(g), nil
}

// AddReinjector registers a reinjector. Inputs must already be registered;
// an overflow sink must be a reinjector registered before this one, so the
// forward capacity pass resolves the sink's spare capacity first and the
// reverse distribution pass routes overflow into a sink that has not yet
// distributed.
func (n *SourceNetwork) AddReinjector(r *Reinjector) (int, error) {
	for _, in := range r.Inputs() {
		if in.Kind() == KindReinjector {
			return 0, NewError("register").Reinjector(r.Name()).
				Context(fmt.Sprintf("input %q is a reinjector; chain through an overflow link", in.Name())).
				Cause(ErrNodeNotFound).Err()
		}
		if !n.registered(in) {
			return 0, NewError("register").Reinjector(r.Name()).
				Context(fmt.Sprintf("input %q", in.Name())).
				Cause(ErrNodeNotFound).Err()
		}
	}
	for _, phase := range []Phase{Water, Steam} {
		for _, t := range r.line(phase).targets {
			if !n.registered(t) {
				return 0, NewError("register").Reinjector(r.Name()).
					Context(fmt.Sprintf("%s target %q", phase, t.Name())).
					Cause(ErrNodeNotFound).Err()
			}
		}
		sink := r.OverflowSink(phase)
		if sink == nil {
			continue
		}
		if !n.registered(sink) {
			return 0, NewError("register").Reinjector(r.Name()).
				Context(fmt.Sprintf("%s overflow sink %q", phase, sink.Name())).
				Cause(ErrSinkNotRegistered).Err()
		}
	}
	if err := n.register(r); err != nil {
		return 0, err
	}
	r.SetLocalIndex(-1)
	return n.reinjectors.Append(r), nil
}

// AddControl registers a network control.
func (n *SourceNetwork) AddControl(c Control) error {
	if n.finalized {
		return NewError("register").Control(c.Name()).Cause(ErrFinalized).Err()
	}
	n.controls = append(n.controls, c)
	return nil
}

// Finalize freezes the topology: locally owned nodes receive local indices
// in registration order, the per-category sections and distributed vectors
// are built, and the dependency set is recorded.
func (n *SourceNetwork) Finalize() error {
	if n.destroyed {
		return NewError("finalize").Vector(n.id).Cause(ErrNetworkDestroyed).Err()
	}
	if n.finalized {
		return NewError("finalize").Vector(n.id).Cause(ErrFinalized).Err()
	}

	n.globalUnknowns = make(map[Kind]int, 3)
	var err error
	n.sourceSec, n.sourceVec, err = n.buildCategory("source", KindSource, n.sourceNodes())
	if err != nil {
		return err
	}
	n.groupSec, n.groupVec, err = n.buildCategory("group", KindGroup, n.groupNodes())
	if err != nil {
		return err
	}
	n.reinjSec, n.reinjVec, err = n.buildCategory("reinjector", KindReinjector, n.reinjectorNodes())
	if err != nil {
		return err
	}

	n.finalized = true
	if err := n.BuildDependencies(); err != nil {
		return err
	}

	if n.metrics != nil {
		n.metrics.SetNodeCount("source", n.sources.Len())
		n.metrics.SetNodeCount("group", n.groups.Len())
		n.metrics.SetNodeCount("reinjector", n.reinjectors.Len())
	}
	n.log.Info("network finalized",
		logging.Rank(n.localRank),
		logging.Int("sources", n.sources.Len()),
		logging.Int("groups", n.groups.Len()),
		logging.Int("reinjectors", n.reinjectors.Len()),
		logging.Int("separated", len(n.separated)),
		logging.Int("controls", len(n.controls)),
		logging.Int("dependencies", n.deps.Len()),
	)
	return nil
}

// buildCategory assigns local indices to owned nodes, then builds the
// category's section and vector. The global layout orders every rank's
// blocks by rank, then registration order within the rank.
func (n *SourceNetwork) buildCategory(name string, kind Kind, nodes []Node) (*dist.Section, *dist.Vector, error) {
	var blockSizes []int
	rangeStart := 0
	globalSize := 0
	for _, node := range nodes {
		globalSize += node.BlockSize()
		switch {
		case node.OwningRank() == n.localRank:
			node.SetLocalIndex(len(blockSizes))
			blockSizes = append(blockSizes, node.BlockSize())
		case node.OwningRank() < n.localRank:
			rangeStart += node.BlockSize()
		}
	}
	n.globalUnknowns[kind] = globalSize

	sec := dist.NewSection(blockSizes)
	vec := dist.NewVector(name, sec.LocalSize(), rangeStart)
	return sec, vec, nil
}

func (n *SourceNetwork) sourceNodes() []Node {
	nodes := make([]Node, 0, n.sources.Len())
	n.sources.Forward(func(_ int, s *Source) Visit {
		nodes = append(nodes, s)
		return Continue
	})
	return nodes
}

func (n *SourceNetwork) groupNodes() []Node {
	nodes := make([]Node, 0, n.groups.Len())
	n.groups.Forward(func(_ int, g *Group) Visit {
		nodes = append(nodes, g)
		return Continue
	})
	return nodes
}

func (n *SourceNetwork) reinjectorNodes() []Node {
	nodes := make([]Node, 0, n.reinjectors.Len())
	n.reinjectors.Forward(func(_ int, r *Reinjector) Visit {
		nodes = append(nodes, r)
		return Continue
	})
	return nodes
}

// Counts returns the number of registered sources, groups and reinjectors.
func (n *SourceNetwork) Counts() (sources, groups, reinjectors int) {
	return n.sources.Len(), n.groups.Len(), n.reinjectors.Len()
}

// Sources returns the ordered source collection.
func (n *SourceNetwork) Sources() *List[*Source] { return n.sources }

// Groups returns the ordered group collection.
func (n *SourceNetwork) Groups() *List[*Group] { return n.groups }

// Reinjectors returns the ordered reinjector collection.
func (n *SourceNetwork) Reinjectors() *List[*Reinjector] { return n.reinjectors }

// SeparatedSources returns the sources whose flow is split by a separator,
// in registration order.
func (n *SourceNetwork) SeparatedSources() []*Source { return n.separated }

// Dependencies returns the recorded dependency set.
func (n *SourceNetwork) Dependencies() *DependencySet { return n.deps }

// GlobalUnknowns returns the global unknown count of a node category across
// all ranks.
func (n *SourceNetwork) GlobalUnknowns(kind Kind) int {
	if n.globalUnknowns == nil {
		return 0
	}
	return n.globalUnknowns[kind]
}

// FindNode returns the registered node with the given name.
func (n *SourceNetwork) FindNode(name string) (Node, error) {
	node, ok := n.byName[name]
	if !ok {
		return nil, NodeNotFoundError("find", name)
	}
	return node, nil
}

// FindSource returns the registered source with the given name.
func (n *SourceNetwork) FindSource(name string) (*Source, error) {
	node, err := n.FindNode(name)
	if err != nil {
		return nil, err
	}
	s, ok := node.(*Source)
	if !ok {
		return nil, NewError("find").Node(node).Context("want source").Cause(ErrNodeNotFound).Err()
	}
	return s, nil
}

// FindGroup returns the registered group with the given name.
func (n *SourceNetwork) FindGroup(name string) (*Group, error) {
	node, err := n.FindNode(name)
	if err != nil {
		return nil, err
	}
	g, ok := node.(*Group)
	if !ok {
		return nil, NewError("find").Node(node).Context("want group").Cause(ErrNodeNotFound).Err()
	}
	return g, nil
}

// FindReinjector returns the registered reinjector with the given name.
func (n *SourceNetwork) FindReinjector(name string) (*Reinjector, error) {
	node, err := n.FindNode(name)
	if err != nil {
		return nil, err
	}
	r, ok := node.(*Reinjector)
	if !ok {
		return nil, NewError("find").Node(node).Context("want reinjector").Cause(ErrNodeNotFound).Err()
	}
	return r, nil
}

// SourceVector returns the distributed source unknown vector.
func (n *SourceNetwork) SourceVector() *dist.Vector { return n.sourceVec }

// GroupVector returns the distributed group unknown vector.
func (n *SourceNetwork) GroupVector() *dist.Vector { return n.groupVec }

// ReinjectorVector returns the distributed reinjector unknown vector.
func (n *SourceNetwork) ReinjectorVector() *dist.Vector { return n.reinjVec }

// EquationIndex returns the global index of the first residual equation of
// an owned node's unknown block.
func (n *SourceNetwork) EquationIndex(node Node) (int, error) {
	if !n.finalized {
		return 0, NewError("equation").Node(node).Cause(ErrNotFinalized).Err()
	}
	if node.OwningRank() != n.localRank {
		return 0, NewError("equation").Node(node).Cause(ErrNotOwned).Err()
	}

	var sec *dist.Section
	var vec *dist.Vector
	var base int
	switch node.Kind() {
	case KindSource:
		sec, vec, base = n.sourceSec, n.sourceVec, n.eqBases.Source
	case KindGroup:
		sec, vec, base = n.groupSec, n.groupVec, n.eqBases.Group
	case KindReinjector:
		sec, vec, base = n.reinjSec, n.reinjVec, n.eqBases.Reinjector
	default:
		return 0, NewError("equation").Node(node).Cause(ErrNodeNotFound).Err()
	}
	offset, err := dist.GlobalOffset(sec, node.LocalIndex(), vec.RangeStart())
	if err != nil {
		return 0, NewError("equation").Node(node).Cause(err).Err()
	}
	return base + offset, nil
}

// BuildDependencies rebuilds the dependency set from the current topology.
// Groups depend on their member sources' cells; reinjectors depend on their
// input cells and on every configured target cell. Only nodes owned by the
// local rank record; the per-rank sets are merged by a cross-rank
// logical-OR reduction.
//
// The set is a superset of the structurally nonzero (equation, cell) pairs:
// target cells are recorded whether or not they received flow, since
// allocation can shift between passes.
func (n *SourceNetwork) BuildDependencies() error {
	n.deps.Clear()

	var failed error
	n.groups.Forward(func(_ int, g *Group) Visit {
		if g.OwningRank() != n.localRank {
			return Continue
		}
		eq, err := n.EquationIndex(g)
		if err != nil {
			failed = err
			return Stop
		}
		for _, cell := range g.MemberCells() {
			n.deps.Add(eq, cell)
		}
		return Continue
	})
	if failed != nil {
		return failed
	}

	n.reinjectors.Forward(func(_ int, r *Reinjector) Visit {
		if r.OwningRank() != n.localRank {
			return Continue
		}
		eq, err := n.EquationIndex(r)
		if err != nil {
			failed = err
			return Stop
		}
		for _, in := range r.Inputs() {
			for _, cell := range inputCells(in) {
				n.deps.Add(eq, cell)
			}
		}
		for _, phase := range []Phase{Water, Steam} {
			for _, cell := range r.TargetCells(phase) {
				n.deps.Add(eq, cell)
			}
		}
		return Continue
	})
	if failed != nil {
		return failed
	}

	if n.metrics != nil {
		n.metrics.SetDependencyPairs(n.deps.Len())
	}
	return nil
}

// inputCells returns the mesh cells a reinjector input draws from.
func inputCells(node Node) []int {
	switch v := node.(type) {
	case *Source:
		return []int{v.CellIndex()}
	case *Group:
		return v.MemberCells()
	default:
		return nil
	}
}

// Totals returns the rate, water rate and steam rate of every source and
// group as consecutive triples, sources first, each category in registration
// order. Between the forward pass and the capacity phase these are per-rank
// partial sums: replicas contribute zero and groups hold only locally owned
// member contributions, so an element-wise sum across ranks yields the global
// totals. Reinjector values are excluded: they are recomputed identically on
// every rank after the merge.
func (n *SourceNetwork) Totals() []float64 {
	vals := make([]float64, 0, 3*(n.sources.Len()+n.groups.Len()))
	appendNode := func(node Node) {
		vals = append(vals, node.Rate(), node.WaterRate(), node.SteamRate())
	}
	n.sources.Forward(func(_ int, s *Source) Visit { appendNode(s); return Continue })
	n.groups.Forward(func(_ int, g *Group) Visit { appendNode(g); return Continue })
	return vals
}

// SetTotals writes merged totals back into the nodes, in the layout
// produced by Totals.
func (n *SourceNetwork) SetTotals(vals []float64) error {
	want := 3 * (n.sources.Len() + n.groups.Len())
	if len(vals) != want {
		return NewError("sync").Vector(n.id).
			Context(fmt.Sprintf("got %d totals, want %d", len(vals), want)).
			Cause(ErrBlockOutOfRange).Err()
	}
	i := 0
	setNode := func(f *flows) {
		f.setTotals(vals[i], vals[i+1], vals[i+2])
		i += 3
	}
	n.sources.Forward(func(_ int, s *Source) Visit { setNode(&s.flows); return Continue })
	n.groups.Forward(func(_ int, g *Group) Visit { setNode(&g.flows); return Continue })
	return nil
}

// Step runs one timestep's evaluation protocol inside a single scoped
// acquisition of the three unknown vectors: source update with separation,
// group summation, control application, cross-rank synchronization, the
// forward capacity phase, the reverse distribution phase, and finally the
// write-back of owned unknown blocks.
func (n *SourceNetwork) Step(iv Interval) error {
	if n.destroyed {
		return NewError("step").Vector(n.id).Cause(ErrNetworkDestroyed).Err()
	}
	if !n.finalized {
		return NewError("step").Vector(n.id).Cause(ErrNotFinalized).Err()
	}

	started := time.Now()
	err := n.sourceVec.Update(func(sourceData []float64) error {
		return n.groupVec.Update(func(groupData []float64) error {
			return n.reinjVec.Update(func(reinjData []float64) error {
				return n.runPasses(iv, sourceData, groupData, reinjData)
			})
		})
	})
	if err != nil {
		n.log.Error("step failed", logging.Error(err),
			logging.Float64("t_start", iv.Start), logging.Float64("t_end", iv.End))
		return err
	}

	n.steps++
	if n.metrics != nil {
		n.metrics.RecordStep(time.Since(started))
	}
	n.log.Debug("step complete",
		logging.Float64("t_start", iv.Start),
		logging.Float64("t_end", iv.End),
		logging.Uint64("steps", n.steps),
		logging.Latency(time.Since(started)))
	return nil
}

func (n *SourceNetwork) runPasses(iv Interval, sourceData, groupData, reinjData []float64) error {
	pass := time.Now()
	n.sources.Forward(func(_ int, s *Source) Visit {
		s.update(n.localRank)
		return Continue
	})
	n.observePass("update", pass)

	pass = time.Now()
	n.groups.Forward(func(_ int, g *Group) Visit {
		g.sum()
		return Continue
	})
	n.observePass("sum", pass)

	for _, c := range n.controls {
		if err := c.Apply(iv); err != nil {
			return NewError("step").Control(c.Name()).Cause(err).Err()
		}
		if n.metrics != nil {
			n.metrics.RecordControl(c.Kind())
		}
	}

	if n.sync != nil {
		pass = time.Now()
		if err := n.sync(n); err != nil {
			return NewError("step").Vector(n.id).Context("cross-rank sync").Cause(err).Err()
		}
		n.observePass("sync", pass)
	}

	n.sources.Forward(func(_ int, s *Source) Visit {
		s.resetCommitment()
		return Continue
	})

	pass = time.Now()
	n.reinjectors.Forward(func(_ int, r *Reinjector) Visit {
		r.Capacity()
		return Continue
	})
	n.observePass("capacity", pass)

	pass = time.Now()
	n.reinjectors.Backward(func(_ int, r *Reinjector) Visit {
		r.Distribute()
		return Continue
	})
	n.observePass("distribute", pass)
	n.reportOverflow()

	return n.writeBack(sourceData, groupData, reinjData)
}

// reportOverflow surfaces nonzero reinjection overflow.
func (n *SourceNetwork) reportOverflow() {
	n.reinjectors.Forward(func(_ int, r *Reinjector) Visit {
		water, steam := r.Overflow()
		if water > 0 {
			n.warnOverflow(r, Water, water)
		}
		if steam > 0 {
			n.warnOverflow(r, Steam, steam)
		}
		return Continue
	})
}

func (n *SourceNetwork) warnOverflow(r *Reinjector, phase Phase, rate float64) {
	if n.metrics != nil {
		n.metrics.RecordOverflow(phase.String(), rate)
	}
	n.log.Warn("reinjection overflow",
		logging.Node(r.Name()),
		logging.Phase(phase.String()),
		logging.Float64("rate", rate))
}

// writeBack assigns every owned node's unknown block into the acquired
// backing arrays. Nodes owned by other ranks are never written locally.
func (n *SourceNetwork) writeBack(sourceData, groupData, reinjData []float64) error {
	var failed error
	n.sources.Forward(func(_ int, s *Source) Visit {
		if err := n.assign(s, n.sourceSec, sourceData); err != nil {
			failed = err
			return Stop
		}
		return Continue
	})
	if failed != nil {
		return failed
	}
	n.groups.Forward(func(_ int, g *Group) Visit {
		if err := n.assign(g, n.groupSec, groupData); err != nil {
			failed = err
			return Stop
		}
		return Continue
	})
	if failed != nil {
		return failed
	}
	n.reinjectors.Forward(func(_ int, r *Reinjector) Visit {
		if err := n.assign(r, n.reinjSec, reinjData); err != nil {
			failed = err
			return Stop
		}
		return Continue
	})
	return failed
}

func (n *SourceNetwork) assign(node Node, sec *dist.Section, data []float64) error {
	if node.OwningRank() != n.localRank {
		return nil
	}
	offset, err := sec.Offset(node.LocalIndex())
	if err != nil {
		return NewError("assign").Node(node).Cause(err).Err()
	}
	return node.Assign(data, offset)
}

func (n *SourceNetwork) observePass(name string, started time.Time) {
	if n.metrics != nil {
		n.metrics.RecordPass(name, time.Since(started))
	}
}

// Destroy releases the three vectors and the node and dependency storage.
// The network cannot be used afterwards. Destroying twice is a no-op.
func (n *SourceNetwork) Destroy() {
	if n.destroyed {
		return
	}
	n.destroyed = true
	if n.sourceVec != nil {
		n.sourceVec.Destroy()
	}
	if n.groupVec != nil {
		n.groupVec.Destroy()
	}
	if n.reinjVec != nil {
		n.reinjVec.Destroy()
	}
	n.sources = nil
	n.groups = nil
	n.reinjectors = nil
	n.separated = nil
	n.controls = nil
	n.byName = nil
	n.deps = nil
	n.log.Info("network destroyed", logging.Uint64("steps", n.steps))
}
