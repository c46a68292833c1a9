// Package smooth denoises subject trajectories with a Savitzky-Golay filter.
// Local polynomial regression suppresses detector jitter without the lag a
// moving average would add to deliberate slow pans.
package smooth

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/maauso/autoframe/internal/track"
)

// Filter defaults, matching the values the crop engine has always used.
const (
	DefaultWindow = 21
	DefaultOrder  = 3
)

// Static errors for filter construction.
var (
	// ErrWindowNotOdd is returned when the window length is even.
	ErrWindowNotOdd = errors.New("smooth: window length must be odd")
	// ErrOrderTooHigh is returned when the polynomial order is not below the window length.
	ErrOrderTooHigh = errors.New("smooth: polynomial order must be less than window length")
)

// Filter is a Savitzky-Golay filter with precomputed projection weights.
// A Filter is immutable after construction and safe for concurrent use.
type Filter struct {
	window int
	order  int
	// proj maps a window of samples to its polynomial fit evaluated at
	// every window position (window x window).
	proj *mat.Dense
}

// NewFilter builds a filter for the given window length and polynomial order.
// The window must be odd and the order strictly below the window length.
func NewFilter(window, order int) (*Filter, error) {
	if window < 1 || window%2 == 0 {
		return nil, fmt.Errorf("%w: got %d", ErrWindowNotOdd, window)
	}
	if order < 0 || order >= window {
		return nil, fmt.Errorf("%w: order %d, window %d", ErrOrderTooHigh, order, window)
	}

	proj, err := projection(window, order)
	if err != nil {
		return nil, err
	}

	return &Filter{window: window, order: order, proj: proj}, nil
}

// Window returns the filter's window length.
func (f *Filter) Window() int { return f.window }

// Order returns the filter's polynomial order.
func (f *Filter) Order() int { return f.order }

// projection computes P = A (AtA)^-1 At for the Vandermonde matrix A over
// offsets centered on zero. Row i of P evaluates the least-squares
// polynomial fit of a window at window position i.
func projection(window, order int) (*mat.Dense, error) {
	half := window / 2

	a := mat.NewDense(window, order+1, nil)
	for i := 0; i < window; i++ {
		z := float64(i - half)
		v := 1.0
		for j := 0; j <= order; j++ {
			a.Set(i, j, v)
			v *= z
		}
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)

	var inv mat.Dense
	if err := inv.Inverse(&ata); err != nil {
		return nil, fmt.Errorf("smooth: singular design matrix: %w", err)
	}

	var proj mat.Dense
	proj.Product(a, &inv, a.T())
	return &proj, nil
}

// Apply smooths one channel. The result has the same length as the input.
// Inputs shorter than the window are returned as an unmodified copy: too
// little data to fit is a defined degenerate case, not an error.
func (f *Filter) Apply(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n < f.window {
		copy(out, values)
		return out
	}

	half := f.window / 2

	for i := 0; i < n; i++ {
		// Interior points use the centered window; points near either
		// end reuse the first or last full window, evaluated at the
		// matching off-center position.
		start := i - half
		row := half
		switch {
		case start < 0:
			start = 0
			row = i
		case start > n-f.window:
			start = n - f.window
			row = i - start
		}

		var acc float64
		for k := 0; k < f.window; k++ {
			acc += f.proj.At(row, k) * values[start+k]
		}
		out[i] = acc
	}

	return out
}

// Smooth filters the x and y channels of a trajectory independently.
// The output has the same length and index alignment as the input.
func (f *Filter) Smooth(centers []track.Center) []track.Center {
	n := len(centers)
	if n == 0 {
		return nil
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, c := range centers {
		xs[i] = c.X
		ys[i] = c.Y
	}

	xs = f.Apply(xs)
	ys = f.Apply(ys)

	out := make([]track.Center, n)
	for i := range out {
		out[i] = track.Center{X: xs[i], Y: ys[i]}
	}
	return out
}
