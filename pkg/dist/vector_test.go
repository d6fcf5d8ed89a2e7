package dist

import (
	"errors"
	"testing"
)

func TestVectorUpdate(t *testing.T) {
	v := NewVector("production", 6, 12)

	if v.Name() != "production" {
		t.Errorf("Name() = %q, want %q", v.Name(), "production")
	}
	if v.LocalSize() != 6 {
		t.Errorf("LocalSize() = %d, want 6", v.LocalSize())
	}
	if v.RangeStart() != 12 {
		t.Errorf("RangeStart() = %d, want 12", v.RangeStart())
	}

	err := v.Update(func(data []float64) error {
		if len(data) != 6 {
			t.Fatalf("Update data length = %d, want 6", len(data))
		}
		for i := range data {
			data[i] = float64(i) * 2
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	// Values persist across acquisitions.
	err = v.Update(func(data []float64) error {
		if data[3] != 6 {
			t.Errorf("data[3] = %v, want 6", data[3])
		}
		return nil
	})
	if err != nil {
		t.Fatalf("second Update returned error: %v", err)
	}
}

func TestVectorNestedAcquisitionFails(t *testing.T) {
	v := NewVector("production", 4, 0)

	err := v.Update(func(data []float64) error {
		return v.Update(func([]float64) error { return nil })
	})
	if !errors.Is(err, ErrVectorBusy) {
		t.Fatalf("nested Update error = %v, want ErrVectorBusy", err)
	}
}

func TestVectorReleasedAfterError(t *testing.T) {
	v := NewVector("production", 4, 0)
	fail := errors.New("kernel failed")

	if err := v.Update(func([]float64) error { return fail }); !errors.Is(err, fail) {
		t.Fatalf("Update error = %v, want %v", err, fail)
	}
	if v.Acquired() {
		t.Fatal("vector still acquired after failed update")
	}

	// A later acquisition succeeds.
	if err := v.Update(func([]float64) error { return nil }); err != nil {
		t.Fatalf("Update after failure returned error: %v", err)
	}
}

func TestVectorDestroyed(t *testing.T) {
	v := NewVector("production", 4, 0)
	v.Destroy()

	err := v.Update(func([]float64) error { return nil })
	if !errors.Is(err, ErrVectorDestroyed) {
		t.Fatalf("Update after Destroy error = %v, want ErrVectorDestroyed", err)
	}
}
