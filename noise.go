package boxkalman

import "gonum.org/v1/gonum/mat"

// NoiseState carries the adaptive noise estimates of a single track: the
// process noise Q, the measurement noise R, and the residual of the last
// correction step. The residual couples one correction's outcome into the
// next projection, which is what makes the noise estimation adaptive rather
// than static.
//
// A NoiseState belongs to exactly one track. It must never be shared or
// reused across tracks, and must not be touched from two goroutines at once.
type NoiseState struct {
	processNoise     *mat.SymDense // Q, 8x8
	measurementNoise *mat.SymDense // R, 4x4
	residual         *mat.VecDense // post-update innovation of the last cycle
}

// NewNoiseState returns a zeroed noise state for a freshly initiated track.
// Q and R start at zero and are grown by the recursions from the first
// projection and correction onwards.
func NewNoiseState() *NoiseState {
	return &NoiseState{
		processNoise:     mat.NewSymDense(stateDim, nil),
		measurementNoise: mat.NewSymDense(measDim, nil),
		residual:         mat.NewVecDense(measDim, nil),
	}
}

// ProcessNoise returns a copy of the current Q estimate.
func (s *NoiseState) ProcessNoise() *mat.SymDense {
	q := mat.NewSymDense(stateDim, nil)
	q.CopySym(s.processNoise)
	return q
}

// SetProcessNoise overwrites the Q estimate.
func (s *NoiseState) SetProcessNoise(q *mat.SymDense) {
	s.processNoise.CopySym(q)
}

// MeasurementNoise returns a copy of the current R estimate.
func (s *NoiseState) MeasurementNoise() *mat.SymDense {
	r := mat.NewSymDense(measDim, nil)
	r.CopySym(s.measurementNoise)
	return r
}

// SetMeasurementNoise overwrites the R estimate.
func (s *NoiseState) SetMeasurementNoise(r *mat.SymDense) {
	s.measurementNoise.CopySym(r)
}

// Residual returns a copy of the residual carried from the last correction.
func (s *NoiseState) Residual() *mat.VecDense {
	r := mat.NewVecDense(measDim, nil)
	r.CopyVec(s.residual)
	return r
}

// adaptMeasurementNoise folds one projection into R:
//
//	R' = f·(R + additive) + (1-f)·(residual·residualᵀ + projected)
//
// where additive is the confidence-scaled heuristic baseline and the second
// term is the empirical a-posteriori estimate built from the previous
// cycle's residual and the projected (pre-noise) covariance.
func (s *NoiseState) adaptMeasurementNoise(forgetting float64, additive, projected *mat.SymDense) {
	hist := mat.NewSymDense(measDim, nil)
	hist.AddSym(s.measurementNoise, additive)

	empirical := mat.NewSymDense(measDim, nil)
	empirical.SymOuterK(1, s.residual)
	empirical.AddSym(empirical, projected)

	next := mat.NewSymDense(measDim, nil)
	next.ScaleSym(forgetting, hist)
	scaled := mat.NewSymDense(measDim, nil)
	scaled.ScaleSym(1-forgetting, empirical)
	next.AddSym(next, scaled)

	s.measurementNoise = next
}

// adaptProcessNoise folds one correction into Q:
//
//	Q' = f·(Q + additive) + (1-f)·K·(innovation·innovationᵀ)·Kᵀ
//
// The empirical term equals the outer product of K·innovation with itself.
func (s *NoiseState) adaptProcessNoise(forgetting float64, additive *mat.SymDense, gain *mat.Dense, innovation *mat.VecDense) {
	var ki mat.VecDense
	ki.MulVec(gain, innovation)

	empirical := mat.NewSymDense(stateDim, nil)
	empirical.SymOuterK(1, &ki)

	hist := mat.NewSymDense(stateDim, nil)
	hist.AddSym(s.processNoise, additive)

	next := mat.NewSymDense(stateDim, nil)
	next.ScaleSym(forgetting, hist)
	scaled := mat.NewSymDense(stateDim, nil)
	scaled.ScaleSym(1-forgetting, empirical)
	next.AddSym(next, scaled)

	s.processNoise = next
}

// storeResidual records measurement − H·mean as the residual carried into
// the next projection cycle.
func (s *NoiseState) storeResidual(updateMat *mat.Dense, measurement, mean *mat.VecDense) {
	var projected mat.VecDense
	projected.MulVec(updateMat, mean)
	s.residual.SubVec(measurement, &projected)
}
