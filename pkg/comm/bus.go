package comm

import (
	"encoding/json"
	"fmt"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/bus"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"
)

// BusOptions tunes the mesh transport.
type BusOptions struct {
	// HandshakeTimeout bounds the initial mesh formation.
	HandshakeTimeout time.Duration
	// RecvTimeout bounds each wait for a peer's contribution inside a
	// collective.
	RecvTimeout time.Duration
}

// DefaultBusOptions returns timeouts suitable for inproc and local TCP
// meshes.
func DefaultBusOptions() BusOptions {
	return BusOptions{
		HandshakeTimeout: 10 * time.Second,
		RecvTimeout:      30 * time.Second,
	}
}

// Bus carries collectives over a full mesh of nanomsg BUS sockets. Rank i
// listens on addrs[i] and dials every lower-ranked peer, so each pair of
// ranks shares exactly one link and every send reaches all peers directly.
//
// All ranks issue collectives in the same order, so contribution frames pair
// up by a per-rank sequence number. A peer that completes a collective can
// run at most one collective ahead before it needs this rank's next frame;
// early frames are stashed until their sequence comes up.
type Bus struct {
	rank int
	size int
	sock mangos.Socket
	opts BusOptions

	sequence uint64
	stash    []busMessage
	closed   bool
}

// NewBus forms the mesh and blocks until every peer has been heard from.
// addrs lists one listen address per rank, identical on all ranks.
func NewBus(rank int, addrs []string, opts BusOptions) (*Bus, error) {
	if rank < 0 || rank >= len(addrs) {
		return nil, fmt.Errorf("rank %d outside address table of %d ranks", rank, len(addrs))
	}

	sock, err := bus.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("creating bus socket: %w", err)
	}
	if err := sock.Listen(addrs[rank]); err != nil {
		sock.Close()
		return nil, fmt.Errorf("listening on %s: %w", addrs[rank], err)
	}
	for peer := 0; peer < rank; peer++ {
		if err := sock.Dial(addrs[peer]); err != nil {
			sock.Close()
			return nil, fmt.Errorf("dialing rank %d at %s: %w", peer, addrs[peer], err)
		}
	}

	b := &Bus{rank: rank, size: len(addrs), sock: sock, opts: opts}
	if err := b.handshake(); err != nil {
		sock.Close()
		return nil, err
	}
	return b, nil
}

func (b *Bus) Rank() int { return b.rank }
func (b *Bus) Size() int { return b.size }

// handshake repeats hello frames until one has arrived from every peer.
// Dialed links come up asynchronously, so hellos sent before a link is
// established are lost; the resend loop covers late joiners. Collective
// frames from peers that finished their handshake first are stashed.
func (b *Bus) handshake() error {
	if b.size == 1 {
		return nil
	}
	deadline := time.Now().Add(b.opts.HandshakeTimeout)
	heard := make(map[int]bool, b.size-1)

	for len(heard) < b.size-1 {
		if time.Now().After(deadline) {
			return fmt.Errorf("mesh handshake: heard %d of %d peers before timeout",
				len(heard), b.size-1)
		}
		if err := b.send(busMessage{Rank: b.rank, Op: opHello}); err != nil {
			return err
		}
		msg, err := b.recvSocket(200 * time.Millisecond)
		if err != nil {
			if err == mangos.ErrRecvTimeout {
				continue
			}
			return err
		}
		if msg.Op == opHello {
			heard[msg.Rank] = true
			continue
		}
		b.stash = append(b.stash, msg)
	}

	// One final hello so peers still waiting on this rank can finish.
	return b.send(busMessage{Rank: b.rank, Op: opHello})
}

func (b *Bus) send(msg busMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding %s frame: %w", msg.Op, err)
	}
	return b.sock.Send(data)
}

// recvSocket reads one frame off the socket with a timeout.
func (b *Bus) recvSocket(timeout time.Duration) (busMessage, error) {
	if err := b.sock.SetOption(mangos.OptionRecvDeadline, timeout); err != nil {
		return busMessage{}, err
	}
	data, err := b.sock.Recv()
	if err != nil {
		return busMessage{}, err
	}
	var msg busMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return busMessage{}, fmt.Errorf("decoding frame: %w", err)
	}
	return msg, nil
}

// takeStashed removes and returns the first stashed frame for the given
// collective.
func (b *Bus) takeStashed(op string, seq uint64) (busMessage, bool) {
	for i, m := range b.stash {
		if m.Op == op && m.Sequence == seq {
			b.stash = append(b.stash[:i], b.stash[i+1:]...)
			return m, true
		}
	}
	return busMessage{}, false
}

// collect sends this rank's contribution and gathers one matching frame from
// every peer. Stray hellos are ignored; frames from a later collective are
// stashed; anything else is a protocol violation.
func (b *Bus) collect(msg busMessage) ([]busMessage, error) {
	if b.closed {
		return nil, ErrClosed
	}
	b.sequence++
	msg.Rank = b.rank
	msg.Sequence = b.sequence
	if err := b.send(msg); err != nil {
		return nil, err
	}

	contributions := make([]busMessage, 0, b.size-1)
	seen := make(map[int]bool, b.size-1)
	deadline := time.Now().Add(b.opts.RecvTimeout)

	for len(contributions) < b.size-1 {
		peer, ok := b.takeStashed(msg.Op, msg.Sequence)
		if !ok {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return nil, fmt.Errorf("%s collective: heard %d of %d peers before timeout",
					msg.Op, len(contributions), b.size-1)
			}
			var err error
			peer, err = b.recvSocket(remaining)
			if err != nil {
				return nil, fmt.Errorf("%s collective: %w", msg.Op, err)
			}
			if peer.Op == opHello {
				continue
			}
			if peer.Sequence > msg.Sequence {
				b.stash = append(b.stash, peer)
				continue
			}
			if peer.Op != msg.Op || peer.Sequence != msg.Sequence {
				return nil, fmt.Errorf("%w: got %s seq %d during %s seq %d from rank %d",
					ErrProtocol, peer.Op, peer.Sequence, msg.Op, msg.Sequence, peer.Rank)
			}
		}
		if seen[peer.Rank] {
			return nil, fmt.Errorf("%w: duplicate %s frame from rank %d",
				ErrProtocol, peer.Op, peer.Rank)
		}
		seen[peer.Rank] = true
		contributions = append(contributions, peer)
	}
	return contributions, nil
}

// ReduceOr merges per-rank boolean matrices element-wise, gathering the
// result to root. Non-root ranks receive nil.
func (b *Bus) ReduceOr(local [][]bool, root int) ([][]bool, error) {
	cols, err := matrixShape(local)
	if err != nil {
		return nil, err
	}
	contributions, err := b.collect(busMessage{
		Op:   opReduceOr,
		Rows: len(local),
		Cols: cols,
		Bits: flattenMatrix(local, cols),
	})
	if err != nil {
		return nil, err
	}
	if b.rank != root {
		return nil, nil
	}

	merged := make([][]bool, len(local))
	for i, row := range local {
		merged[i] = append([]bool(nil), row...)
	}
	for _, c := range contributions {
		if c.Rows != len(local) || c.Cols != cols {
			return nil, fmt.Errorf("%w: rank %d sent %dx%d, local is %dx%d",
				ErrShapeMismatch, c.Rank, c.Rows, c.Cols, len(local), cols)
		}
		orInto(merged, c.Bits, cols)
	}
	return merged, nil
}

// SumAll element-wise sums the per-rank slices; every rank receives the
// total.
func (b *Bus) SumAll(local []float64) ([]float64, error) {
	contributions, err := b.collect(busMessage{Op: opSumAll, Values: local})
	if err != nil {
		return nil, err
	}
	total := append([]float64(nil), local...)
	for _, c := range contributions {
		if len(c.Values) != len(local) {
			return nil, fmt.Errorf("%w: rank %d sent %d values, local has %d",
				ErrShapeMismatch, c.Rank, len(c.Values), len(local))
		}
		for i, v := range c.Values {
			total[i] += v
		}
	}
	return total, nil
}

// Barrier blocks until every rank has entered it.
func (b *Bus) Barrier() error {
	_, err := b.collect(busMessage{Op: opBarrier})
	return err
}

// Close tears down the mesh link.
func (b *Bus) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	return b.sock.Close()
}

// Ensure both implementations satisfy the interface.
var (
	_ Communicator = (*Bus)(nil)
	_ Communicator = (*Local)(nil)
)
