package transform

import (
	"gonum.org/v1/gonum/mat"

	"github.com/Boliti/Website/pkg/models"
)

// DefaultALSIterations is the number of reweighting passes used by the pipeline.
const DefaultALSIterations = 10

// BaselineALS estimates the baseline of a signal with asymmetric least squares.
//
// Each pass solves (W + lam*D*D^T) z = W y, where D is the second-difference
// operator, and then reweights every point with p when it lies above the
// fit and 1-p when below. At most niter passes are run; iteration stops early
// once fewer than two points keep a non-zero weight. The caller subtracts
// the returned baseline from the amplitudes.
func BaselineALS(amplitudes []float64, lam, p float64, niter int) ([]float64, error) {
	if lam <= 0 {
		return nil, models.NewValidationError("lam", "must be positive, got %g", lam)
	}
	if !(p > 0 && p < 1) {
		return nil, models.NewValidationError("p", "must be within (0, 1), got %g", p)
	}
	if niter < 1 {
		return nil, models.NewValidationError("niter", "must be at least 1, got %d", niter)
	}

	n := len(amplitudes)
	if n == 0 {
		return nil, models.NewValidationError("amplitudes", "array is empty")
	}
	if n < 3 {
		return nil, models.NewValidationError("amplitudes",
			"baseline estimation needs at least 3 points, got %d", n)
	}

	const bandwidth = 2
	penalty := secondDifferencePenalty(n, lam)

	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}

	data := make([]float64, len(penalty))
	rhs := mat.NewVecDense(n, nil)
	var z mat.VecDense

	for iter := 0; iter < niter; iter++ {
		copy(data, penalty)
		for i := 0; i < n; i++ {
			data[i*(bandwidth+1)] += w[i]
			rhs.SetVec(i, w[i]*amplitudes[i])
		}

		var chol mat.BandCholesky
		if ok := chol.Factorize(mat.NewSymBandDense(n, bandwidth, data)); !ok {
			return nil, &models.ComputationError{Op: "baseline", Msg: "penalized system is not positive definite"}
		}
		if err := ignoreCondition(chol.SolveVecTo(&z, rhs)); err != nil {
			return nil, &models.ComputationError{Op: "baseline", Msg: err.Error()}
		}

		weighted := 0
		for i, y := range amplitudes {
			zi := z.AtVec(i)
			switch {
			case y > zi:
				w[i] = p
				weighted++
			case y < zi:
				w[i] = 1 - p
				weighted++
			default:
				w[i] = 0
			}
		}
		// The fit passes through all but at most one point, so the next
		// system would be singular and z is already the fixed point.
		if weighted < 2 {
			break
		}
	}

	baseline := make([]float64, n)
	for i := range baseline {
		baseline[i] = z.AtVec(i)
	}
	return baseline, nil
}

// secondDifferencePenalty returns lam*D*D^T in upper symmetric band storage
// (three entries per row: diagonal, first and second super-diagonal).
func secondDifferencePenalty(n int, lam float64) []float64 {
	band := make([]float64, n*3)
	for j := 0; j+2 < n; j++ {
		band[j*3] += lam
		band[(j+1)*3] += 4 * lam
		band[(j+2)*3] += lam

		band[j*3+1] -= 2 * lam
		band[(j+1)*3+1] -= 2 * lam

		band[j*3+2] += lam
	}
	return band
}
