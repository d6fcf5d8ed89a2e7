package network

// Kind tags the node variants in the flow graph.
type Kind int

const (
	KindSource Kind = iota
	KindGroup
	KindReinjector
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindGroup:
		return "group"
	case KindReinjector:
		return "reinjector"
	default:
		return "unknown"
	}
}

// Node is the contract shared by every variant in the flow graph. Flow
// quantities are signed: negative is net outflow from the reservoir
// (production), positive is net inflow (injection).
//
// Each node owns a block of entries in its category's distributed unknown
// vector; BlockSize gives the block width and Assign writes the node's
// current values into an acquired backing array at a caller-computed offset.
// Only the owning rank assigns; replicas on other ranks carry values for
// structure and cross-rank sums only.
type Node interface {
	Name() string
	Kind() Kind
	OwningRank() int
	LocalIndex() int

	Rate() float64
	WaterRate() float64
	SteamRate() float64

	BlockSize() int
	Assign(data []float64, offset int) error

	// SetLocalIndex is called once when the network finalizes, for nodes
	// owned by the local rank.
	SetLocalIndex(i int)
}

// flows carries the identity and signed flow quantities every variant
// shares.
type flows struct {
	name       string
	owningRank int
	localIndex int

	rate      float64
	waterRate float64
	steamRate float64
}

func (f *flows) Name() string       { return f.name }
func (f *flows) OwningRank() int    { return f.owningRank }
func (f *flows) LocalIndex() int    { return f.localIndex }
func (f *flows) Rate() float64      { return f.rate }
func (f *flows) WaterRate() float64 { return f.waterRate }
func (f *flows) SteamRate() float64 { return f.steamRate }

// SetLocalIndex records the node's position within its category's per-rank
// unknown blocks. Called once by setup on the owning rank.
func (f *flows) SetLocalIndex(i int) { f.localIndex = i }

// setTotals overwrites the signed flow quantities, used when cross-rank
// partial sums are replaced by merged totals.
func (f *flows) setTotals(rate, water, steam float64) {
	f.rate = rate
	f.waterRate = water
	f.steamRate = steam
}

// checkBlock validates that a block of the given size fits data at offset.
func checkBlock(data []float64, offset, size int) error {
	if offset < 0 || offset+size > len(data) {
		return ErrBlockOutOfRange
	}
	return nil
}
