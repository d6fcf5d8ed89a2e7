// Package history persists timestep snapshots of network quantities to an
// append-only compressed log: one snappy-framed JSON record per step, a
// sequential reader for recovery, and a memory-mapped reader for random
// access by step number.
package history

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/snappy"

	"github.com/dd0wney/sourcenet/pkg/metrics"
)

var (
	ErrChecksum      = errors.New("history record checksum mismatch")
	ErrTruncated     = errors.New("history log ends mid record")
	ErrUnsortedSteps = errors.New("history step numbers are not increasing")
	ErrStepNotFound  = errors.New("step not recorded")
)

// Flows is one node's sampled flow triple.
type Flows struct {
	Rate  float64 `json:"rate"`
	Water float64 `json:"water"`
	Steam float64 `json:"steam"`
}

// Record is one timestep snapshot of selected nodes. Step is assigned by
// the log on append.
type Record struct {
	Step   uint64           `json:"step"`
	Time   float64          `json:"time"`
	Values map[string]Flows `json:"values"`
}

// Log is an append-only history file. Each record is JSON encoded, snappy
// compressed and framed as
//
//	[Step:8][RawLen:4][CompLen:4][Data:CompLen][CRC32:4]
//
// all big-endian, with the checksum taken over the compressed bytes.
type Log struct {
	file *os.File
	w    *bufio.Writer
	path string
	step uint64
	mu   sync.Mutex

	metrics *metrics.Registry

	appends         uint64
	rawBytes        uint64
	compressedBytes uint64
}

// Options configures a history log.
type Options struct {
	// Metrics receives append instrumentation. Nil disables it.
	Metrics *metrics.Registry
}

// Open opens or creates the history log at path, creating parent
// directories, and recovers the last step number from existing records.
func Open(path string, opts Options) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening history log: %w", err)
	}
	l := &Log{
		file:    file,
		w:       bufio.NewWriter(file),
		path:    path,
		metrics: opts.Metrics,
	}
	records, err := ReadAll(path)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("recovering history log: %w", err)
	}
	if len(records) > 0 {
		l.step = records[len(records)-1].Step
	}
	return l, nil
}

// Append assigns the next step number to the record and writes it. The
// returned step number identifies the record for Seek.
func (l *Log) Append(rec Record) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	l.step++
	rec.Step = l.step

	raw, err := json.Marshal(&rec)
	if err != nil {
		return 0, fmt.Errorf("encoding history record: %w", err)
	}
	compressed := snappy.Encode(nil, raw)
	if err := l.writeFrame(rec.Step, len(raw), compressed); err != nil {
		return 0, fmt.Errorf("writing history record: %w", err)
	}

	l.appends++
	l.rawBytes += uint64(len(raw))
	l.compressedBytes += uint64(len(compressed))
	if l.metrics != nil {
		l.metrics.RecordHistoryAppend(len(raw), len(compressed), time.Since(start))
	}
	return rec.Step, nil
}

func (l *Log) writeFrame(step uint64, rawLen int, compressed []byte) error {
	if err := binary.Write(l.w, binary.BigEndian, step); err != nil {
		return err
	}
	if err := binary.Write(l.w, binary.BigEndian, uint32(rawLen)); err != nil {
		return err
	}
	if err := binary.Write(l.w, binary.BigEndian, uint32(len(compressed))); err != nil {
		return err
	}
	if _, err := l.w.Write(compressed); err != nil {
		return err
	}
	if err := binary.Write(l.w, binary.BigEndian, crc32.ChecksumIEEE(compressed)); err != nil {
		return err
	}
	return l.w.Flush()
}

// LastStep returns the most recently written step number.
func (l *Log) LastStep() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.step
}

// Stats summarizes what this log instance has written.
type Stats struct {
	Appends          uint64
	RawBytes         uint64
	CompressedBytes  uint64
	CompressionRatio float64
}

// Stats returns append and compression statistics since the log was opened.
func (l *Log) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	ratio := 0.0
	if l.rawBytes > 0 {
		ratio = 1 - float64(l.compressedBytes)/float64(l.rawBytes)
	}
	return Stats{
		Appends:          l.appends,
		RawBytes:         l.rawBytes,
		CompressedBytes:  l.compressedBytes,
		CompressionRatio: ratio,
	}
}

// Flush forces buffered frames to stable storage.
func (l *Log) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Flush(); err != nil {
		return err
	}
	return l.file.Sync()
}

// Close flushes and closes the log file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Flush(); err != nil {
		return err
	}
	if err := l.file.Sync(); err != nil {
		return err
	}
	return l.file.Close()
}
