package network

// GroupParams configures a new Group.
type GroupParams struct {
	Name       string
	OwningRank int
	// Members are the sources and sub-groups aggregated by this group.
	// A member group must be registered before the group that contains
	// it, so sums computed in registration order see up-to-date members.
	Members []Node
}

// Group aggregates a fixed set of member nodes by summation. It carries no
// unknowns beyond the aggregate rate, water rate and steam rate.
type Group struct {
	flows
	members []Node
}

// NewGroup constructs a group node over the given members.
func NewGroup(p GroupParams) *Group {
	return &Group{
		flows:   flows{name: p.Name, owningRank: p.OwningRank},
		members: p.Members,
	}
}

func (g *Group) Kind() Kind { return KindGroup }

// Members returns the group's member nodes in configuration order.
func (g *Group) Members() []Node { return g.members }

// sum recomputes the aggregate totals from the members' current values.
// Every rank sums its replica: member values are rank-local partial
// contributions until the cross-rank synchronization merges them, so the
// per-rank group sums are themselves valid partial contributions.
func (g *Group) sum() {
	g.rate = 0
	g.waterRate = 0
	g.steamRate = 0
	for _, m := range g.members {
		g.rate += m.Rate()
		g.waterRate += m.WaterRate()
		g.steamRate += m.SteamRate()
	}
}

// MemberCells returns the mesh cells of all member sources, recursing
// through sub-groups. Cell multiplicity follows membership.
func (g *Group) MemberCells() []int {
	var cells []int
	for _, m := range g.members {
		switch n := m.(type) {
		case *Source:
			cells = append(cells, n.CellIndex())
		case *Group:
			cells = append(cells, n.MemberCells()...)
		}
	}
	return cells
}

// BlockSize returns the width of a group's unknown block: rate, water rate,
// steam rate.
func (g *Group) BlockSize() int { return 3 }

// Assign writes the group's unknown block into an acquired backing array.
func (g *Group) Assign(data []float64, offset int) error {
	if err := checkBlock(data, offset, g.BlockSize()); err != nil {
		return NewError("assign").Group(g.name).Cause(err).Err()
	}
	data[offset] = g.rate
	data[offset+1] = g.waterRate
	data[offset+2] = g.steamRate
	return nil
}
