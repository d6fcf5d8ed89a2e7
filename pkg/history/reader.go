package history

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/golang/snappy"
)

// ReadAll decodes every record in the log sequentially. A missing file reads
// as empty; a frame that fails its checksum or ends early is an error.
func ReadAll(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	r := bufio.NewReader(file)
	var records []Record
	for {
		var step uint64
		if err := binary.Read(r, binary.BigEndian, &step); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return nil, truncated(err)
		}
		var rawLen, compLen uint32
		if err := binary.Read(r, binary.BigEndian, &rawLen); err != nil {
			return nil, truncated(err)
		}
		if err := binary.Read(r, binary.BigEndian, &compLen); err != nil {
			return nil, truncated(err)
		}
		compressed := make([]byte, compLen)
		if _, err := io.ReadFull(r, compressed); err != nil {
			return nil, truncated(err)
		}
		var sum uint32
		if err := binary.Read(r, binary.BigEndian, &sum); err != nil {
			return nil, truncated(err)
		}

		rec, err := decodeRecord(step, rawLen, compressed, sum)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// truncated maps an end of file inside a frame to ErrTruncated.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}

// decodeRecord verifies and decompresses one frame body.
func decodeRecord(step uint64, rawLen uint32, compressed []byte, sum uint32) (Record, error) {
	if crc32.ChecksumIEEE(compressed) != sum {
		return Record{}, fmt.Errorf("step %d: %w", step, ErrChecksum)
	}
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return Record{}, fmt.Errorf("step %d: decompressing record: %w", step, err)
	}
	if uint32(len(raw)) != rawLen {
		return Record{}, fmt.Errorf("step %d: decoded %d bytes, frame declared %d", step, len(raw), rawLen)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("step %d: decoding record: %w", step, err)
	}
	return rec, nil
}
