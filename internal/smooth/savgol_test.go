package smooth

import (
	"errors"
	"math"
	"testing"

	"github.com/maauso/autoframe/internal/track"
)

func TestNewFilter_Validation(t *testing.T) {
	tests := []struct {
		name    string
		window  int
		order   int
		wantErr error
	}{
		{"valid defaults", DefaultWindow, DefaultOrder, nil},
		{"valid small", 5, 2, nil},
		{"even window", 6, 2, ErrWindowNotOdd},
		{"zero window", 0, 0, ErrWindowNotOdd},
		{"negative window", -3, 0, ErrWindowNotOdd},
		{"order equals window", 5, 5, ErrOrderTooHigh},
		{"order above window", 5, 7, ErrOrderTooHigh},
		{"negative order", 5, -1, ErrOrderTooHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFilter(tt.window, tt.order)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestApply_ConstantUnchanged(t *testing.T) {
	f, err := NewFilter(5, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	values := []float64{42, 42, 42, 42, 42, 42, 42}
	got := f.Apply(values)

	if len(got) != len(values) {
		t.Fatalf("expected length %d, got %d", len(values), len(got))
	}
	for i, v := range got {
		if math.Abs(v-42) > 1e-9 {
			t.Errorf("index %d: expected 42, got %g", i, v)
		}
	}
}

func TestApply_PolynomialPreserved(t *testing.T) {
	// A degree-2 filter must reproduce linear and quadratic inputs
	// exactly, including at the sequence edges.
	f, err := NewFilter(7, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	values := make([]float64, 20)
	for i := range values {
		x := float64(i)
		values[i] = 3 + 2*x + 0.5*x*x
	}

	got := f.Apply(values)
	for i := range values {
		if math.Abs(got[i]-values[i]) > 1e-6 {
			t.Errorf("index %d: expected %g, got %g", i, values[i], got[i])
		}
	}
}

func TestApply_ShortInputPassThrough(t *testing.T) {
	f, err := NewFilter(21, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	values := []float64{1, 2, 3}
	got := f.Apply(values)

	if len(got) != 3 {
		t.Fatalf("expected length 3, got %d", len(got))
	}
	for i := range values {
		if got[i] != values[i] {
			t.Errorf("index %d: expected %g unchanged, got %g", i, values[i], got[i])
		}
	}

	// Pass-through must still be a copy, not the caller's slice.
	got[0] = 99
	if values[0] == 99 {
		t.Error("Apply returned the input slice instead of a copy")
	}
}

func TestSmooth_SuppressesOutlier(t *testing.T) {
	f, err := NewFilter(5, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw := []track.Center{
		{X: 100, Y: 100},
		{X: 400, Y: 100}, // detector glitch
		{X: 105, Y: 100},
		{X: 110, Y: 100},
		{X: 108, Y: 100},
	}

	got := f.Smooth(raw)
	if len(got) != len(raw) {
		t.Fatalf("expected length %d, got %d", len(raw), len(got))
	}

	// The spike must be pulled toward the local trend, not reproduced.
	if math.Abs(got[1].X-400) < 50 {
		t.Errorf("outlier not suppressed: got x=%g", got[1].X)
	}
	if got[1].X < 100 || got[1].X > 300 {
		t.Errorf("smoothed value outside plausible range: got x=%g", got[1].X)
	}

	// The constant y channel stays constant.
	for i, c := range got {
		if math.Abs(c.Y-100) > 1e-9 {
			t.Errorf("index %d: y channel changed to %g", i, c.Y)
		}
	}
}

func TestSmooth_Empty(t *testing.T) {
	f, err := NewFilter(5, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := f.Smooth(nil); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}
