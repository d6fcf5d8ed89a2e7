package comm

// Collective operation tags carried on the wire.
const (
	opHello    = "hello"
	opReduceOr = "reduce_or"
	opSumAll   = "sum_all"
	opBarrier  = "barrier"
)

// busMessage is the single frame type exchanged between ranks. Sequence
// numbers pair contributions belonging to the same collective; a frame whose
// op or sequence does not match the collective in progress is a protocol
// violation.
type busMessage struct {
	Rank     int       `json:"rank"`
	Op       string    `json:"op"`
	Sequence uint64    `json:"sequence"`
	Rows     int       `json:"rows,omitempty"`
	Cols     int       `json:"cols,omitempty"`
	Bits     []bool    `json:"bits,omitempty"`
	Values   []float64 `json:"values,omitempty"`
}

// flattenMatrix packs a rectangular boolean matrix row-major.
func flattenMatrix(m [][]bool, cols int) []bool {
	bits := make([]bool, 0, len(m)*cols)
	for _, row := range m {
		bits = append(bits, row...)
	}
	return bits
}

// orInto merges row-major bits into a matrix of the same shape.
func orInto(dst [][]bool, bits []bool, cols int) {
	for i := range dst {
		for j := range dst[i] {
			if bits[i*cols+j] {
				dst[i][j] = true
			}
		}
	}
}
