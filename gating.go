package boxkalman

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// GatingDistance computes the squared Mahalanobis distance between a state
// distribution and each row of measurements (an N×4 matrix of candidate
// boxes). Distances are thresholded by the caller against Chi2Inv95[4], or
// Chi2Inv95[2] when onlyPosition restricts the comparison to the box centre.
//
// The projection folds in the track's current R estimate but does not
// advance the adaptive recursion: gating is read-only with respect to the
// NoiseState, so association layers may call it any number of times between
// corrections.
func (f *Filter) GatingDistance(state *NoiseState, mean *mat.VecDense, covariance *mat.SymDense, measurements *mat.Dense, onlyPosition bool) ([]float64, error) {
	projMean, projCov := f.projectRaw(mean, covariance)
	projCov.AddSym(projCov, state.measurementNoise)

	dim := measDim
	if onlyPosition {
		dim = 2
		sub := mat.NewSymDense(dim, nil)
		for i := 0; i < dim; i++ {
			for j := i; j < dim; j++ {
				sub.SetSym(i, j, projCov.At(i, j))
			}
		}
		projCov = sub
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(projCov); !ok {
		return nil, fmt.Errorf("gating distance: %w", ErrNotPositiveDefinite)
	}
	var lower mat.TriDense
	chol.LTo(&lower)

	n, cols := measurements.Dims()
	if cols < dim {
		return nil, fmt.Errorf("gating distance: measurements have %d columns, want at least %d", cols, dim)
	}

	// d ᵀ·S⁻¹·d = zᵀ·z where L·z = d, solved by forward substitution
	// against the lower-triangular Cholesky factor.
	distances := make([]float64, n)
	z := make([]float64, dim)
	for mi := 0; mi < n; mi++ {
		for i := 0; i < dim; i++ {
			d := measurements.At(mi, i) - projMean.AtVec(i)
			for j := 0; j < i; j++ {
				d -= lower.At(i, j) * z[j]
			}
			z[i] = d / lower.At(i, i)
		}
		var sum float64
		for _, v := range z {
			sum += v * v
		}
		distances[mi] = sum
	}
	return distances, nil
}
