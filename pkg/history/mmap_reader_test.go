package history

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func openReader(t *testing.T, path string) *Reader {
	t.Helper()
	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestReaderMatchesSequentialRead(t *testing.T) {
	path := logPath(t)
	writeLog(t, path, 10, 20, 30, 40, 50)

	want, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	r := openReader(t, path)
	if r.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", r.Len(), len(want))
	}
	if !reflect.DeepEqual(r.Steps(), []uint64{1, 2, 3, 4, 5}) {
		t.Errorf("Steps() = %v, want 1..5", r.Steps())
	}
	for i := range want {
		got, err := r.Record(i)
		if err != nil {
			t.Fatalf("Record(%d) error = %v", i, err)
		}
		if !reflect.DeepEqual(got, want[i]) {
			t.Errorf("Record(%d) = %+v, want %+v", i, got, want[i])
		}
	}
}

func TestReaderRecordBounds(t *testing.T) {
	path := logPath(t)
	writeLog(t, path, 10)

	r := openReader(t, path)
	for _, i := range []int{-1, 1} {
		if _, err := r.Record(i); err == nil {
			t.Errorf("Record(%d) error = nil, want out of range", i)
		}
	}
}

func TestReaderSeek(t *testing.T) {
	path := logPath(t)
	writeLog(t, path, 10, 20, 30)

	r := openReader(t, path)
	rec, err := r.Seek(2)
	if err != nil {
		t.Fatalf("Seek(2) error = %v", err)
	}
	if rec.Step != 2 || rec.Time != 20 {
		t.Errorf("Seek(2) = step %d at t=%v, want step 2 at t=20", rec.Step, rec.Time)
	}
	if _, err := r.Seek(99); !errors.Is(err, ErrStepNotFound) {
		t.Errorf("Seek(99) error = %v, want ErrStepNotFound", err)
	}
}

func TestReaderSeekUnsortedLog(t *testing.T) {
	first, second := logPath(t), logPath(t)
	writeLog(t, first, 10, 20)
	writeLog(t, second, 30)

	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatal(err)
	}
	joined := filepath.Join(t.TempDir(), "joined.hist")
	if err := os.WriteFile(joined, append(a, b...), 0o644); err != nil {
		t.Fatal(err)
	}

	// Steps restart across the splice: 1, 2, 1. Indexed reads still work,
	// step lookup does not.
	r := openReader(t, joined)
	if !reflect.DeepEqual(r.Steps(), []uint64{1, 2, 1}) {
		t.Fatalf("Steps() = %v, want [1 2 1]", r.Steps())
	}
	rec, err := r.Record(2)
	if err != nil {
		t.Fatalf("Record(2) error = %v", err)
	}
	if rec.Time != 30 {
		t.Errorf("Record(2) time = %v, want 30", rec.Time)
	}
	if _, err := r.Seek(1); !errors.Is(err, ErrUnsortedSteps) {
		t.Errorf("Seek() error = %v, want ErrUnsortedSteps", err)
	}
}

func TestOpenReaderTruncatedLog(t *testing.T) {
	path := logPath(t)
	writeLog(t, path, 10, 20)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data[:len(data)-3], 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenReader(path); !errors.Is(err, ErrTruncated) {
		t.Errorf("OpenReader() error = %v, want ErrTruncated", err)
	}
}

func TestReaderDetectsCorruptPayload(t *testing.T) {
	path := logPath(t)
	writeLog(t, path, 10)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[frameHeaderSize] ^= 0xff
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	// The index only walks headers, so opening succeeds and the damage
	// surfaces on the record read.
	r := openReader(t, path)
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
	if _, err := r.Record(0); !errors.Is(err, ErrChecksum) {
		t.Errorf("Record(0) error = %v, want ErrChecksum", err)
	}
}

func TestReaderEmptyLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.hist")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	r := openReader(t, path)
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
	if _, err := r.Seek(1); !errors.Is(err, ErrStepNotFound) {
		t.Errorf("Seek() error = %v, want ErrStepNotFound", err)
	}
}
