package transform

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/Boliti/Website/pkg/models"
)

// SavitzkyGolay smooths a signal by fitting a polynomial of degree polyOrder
// over a sliding window of windowLength samples. Points closer than half a
// window to either end are taken from a single polynomial fitted to the first
// (or last) window.
func SavitzkyGolay(amplitudes []float64, windowLength, polyOrder int) ([]float64, error) {
	n := len(amplitudes)
	if windowLength < 1 {
		return nil, models.NewValidationError("window_length", "must be positive, got %d", windowLength)
	}
	if n < windowLength {
		return nil, models.NewValidationError("window_length",
			"signal length %d is shorter than the filter window %d", n, windowLength)
	}
	if polyOrder < 0 {
		return nil, models.NewValidationError("polyorder", "must not be negative, got %d", polyOrder)
	}
	if polyOrder >= windowLength {
		return nil, models.NewValidationError("polyorder",
			"polynomial order %d must be less than the window length %d", polyOrder, windowLength)
	}

	coeffs, err := savgolCoeffs(windowLength, polyOrder)
	if err != nil {
		return nil, err
	}

	// Even windows evaluate half a sample after the output position.
	lo := (windowLength - 1) / 2
	out := make([]float64, n)
	for start := 0; start+windowLength <= n; start++ {
		out[start+lo] = floats.Dot(coeffs, amplitudes[start:start+windowLength])
	}

	half := windowLength / 2
	if err := fitEdge(amplitudes, 0, windowLength, 0, half, polyOrder, out); err != nil {
		return nil, err
	}
	if err := fitEdge(amplitudes, n-windowLength, windowLength, n-half, n, polyOrder, out); err != nil {
		return nil, err
	}
	return out, nil
}

// savgolCoeffs returns the weights that evaluate the least-squares polynomial
// at the centre of the window.
func savgolCoeffs(windowLength, polyOrder int) ([]float64, error) {
	pos := float64(windowLength-1) / 2

	a := mat.NewDense(polyOrder+1, windowLength, nil)
	for k := 0; k < windowLength; k++ {
		x := float64(k) - pos
		v := 1.0
		for j := 0; j <= polyOrder; j++ {
			a.Set(j, k, v)
			v *= x
		}
	}

	e0 := mat.NewVecDense(polyOrder+1, nil)
	e0.SetVec(0, 1)

	var c mat.VecDense
	if err := ignoreCondition(c.SolveVec(a, e0)); err != nil {
		return nil, &models.ComputationError{Op: "smoothing", Msg: fmt.Sprintf("coefficient solve: %v", err)}
	}
	return append([]float64(nil), c.RawVector().Data...), nil
}

// fitEdge fits a polynomial to the windowLength samples starting at winStart
// and evaluates it at the positions out[from:to].
func fitEdge(x []float64, winStart, windowLength, from, to, polyOrder int, out []float64) error {
	if from >= to {
		return nil
	}

	// Positions are centred on the window to keep the Vandermonde matrix well conditioned.
	centre := float64(windowLength-1) / 2
	v := mat.NewDense(windowLength, polyOrder+1, nil)
	for k := 0; k < windowLength; k++ {
		t := float64(k) - centre
		p := 1.0
		for j := 0; j <= polyOrder; j++ {
			v.Set(k, j, p)
			p *= t
		}
	}

	y := mat.NewVecDense(windowLength, append([]float64(nil), x[winStart:winStart+windowLength]...))
	var c mat.VecDense
	if err := ignoreCondition(c.SolveVec(v, y)); err != nil {
		return &models.ComputationError{Op: "smoothing", Msg: fmt.Sprintf("edge fit: %v", err)}
	}

	for i := from; i < to; i++ {
		t := float64(i-winStart) - centre
		// Horner evaluation, highest degree first.
		acc := 0.0
		for j := polyOrder; j >= 0; j-- {
			acc = acc*t + c.AtVec(j)
		}
		out[i] = acc
	}
	return nil
}
