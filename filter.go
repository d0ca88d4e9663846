package boxkalman

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// stateDim is the size of the full state [x, y, a, h, vx, vy, va, vh].
	stateDim = 8
	// measDim is the size of a measurement [x, y, a, h].
	measDim = 4
)

// ErrNotPositiveDefinite reports that a covariance required by a Cholesky
// factorisation was not positive definite. The affected track should be
// treated as lost by the caller; retrying with the same inputs cannot
// succeed.
var ErrNotPositiveDefinite = errors.New("boxkalman: covariance not positive definite")

// Filter holds the immutable constant-velocity model matrices and the scene
// metadata shared by all tracks. It carries no per-track state: Q, R and the
// carried residual live in a track-private NoiseState passed to each
// operation.
//
// A Filter may be shared across tracks and goroutines provided SetImageSize
// is not called concurrently with filtering.
type Filter struct {
	cfg Config

	motionMat *mat.Dense // 8x8 constant-velocity transition, dt = 1 frame
	updateMat *mat.Dense // 4x8 observation matrix, identity on [x, y, a, h]

	imageWidth  float64
	imageHeight float64
}

// NewFilter builds a filter with the given noise heuristics. The model
// matrices are fixed at construction and never change.
func NewFilter(cfg Config) *Filter {
	motionMat := mat.NewDense(stateDim, stateDim, nil)
	for i := 0; i < stateDim; i++ {
		motionMat.Set(i, i, 1)
	}
	for i := 0; i < measDim; i++ {
		motionMat.Set(i, measDim+i, 1)
	}

	updateMat := mat.NewDense(measDim, stateDim, nil)
	for i := 0; i < measDim; i++ {
		updateMat.Set(i, i, 1)
	}

	return &Filter{
		cfg:       cfg,
		motionMat: motionMat,
		updateMat: updateMat,
	}
}

// SetImageSize records the scene extent used to scale initial positional
// uncertainty by distance from the image centre. With the default zero
// extent the scaling degenerates towards distance from the image corner.
func (f *Filter) SetImageSize(width, height float64) {
	f.imageWidth = width
	f.imageHeight = height
}

// distanceToImageCenter returns the Euclidean distance from the principal
// point to (x, y). Boxes far from the optical centre are assumed less
// certain due to perspective effects.
func (f *Filter) distanceToImageCenter(x, y float64) float64 {
	return math.Hypot(f.imageWidth/2-x, f.imageHeight/2-y)
}

// Initiate creates the state distribution for a new track from an
// unassociated measurement (x, y, a, h). Velocities start at zero mean.
// The covariance is diagonal, with positional uncertainty scaled by the
// distance from the image centre rather than a flat constant.
//
// The caller guarantees finite components and positive aspect ratio and
// height; see ValidateMeasurement for an optional boundary check.
func (f *Filter) Initiate(measurement *mat.VecDense) (*mat.VecDense, *mat.SymDense) {
	mean := mat.NewVecDense(stateDim, nil)
	for i := 0; i < measDim; i++ {
		mean.SetVec(i, measurement.AtVec(i))
	}

	dist := f.distanceToImageCenter(measurement.AtVec(0), measurement.AtVec(1))
	a := measurement.AtVec(2)
	h := measurement.AtVec(3)

	std := [stateDim]float64{
		2 * f.cfg.StdWeightPosition * dist,
		2 * f.cfg.StdWeightPosition * dist,
		a,
		2 * f.cfg.StdWeightPosition * h,
		10 * f.cfg.StdWeightVelocity * dist,
		10 * f.cfg.StdWeightVelocity * dist,
		0.1 * a,
		10 * f.cfg.StdWeightVelocity * h,
	}

	covariance := mat.NewSymDense(stateDim, nil)
	for i, s := range std {
		covariance.SetSym(i, i, s*s)
	}
	return mean, covariance
}

// Predict propagates the state distribution one frame forward:
// mean' = F·mean, cov' = F·cov·Fᵀ + Q. The track's Q estimate is read here
// and only advanced inside Update.
func (f *Filter) Predict(state *NoiseState, mean *mat.VecDense, covariance *mat.SymDense) (*mat.VecDense, *mat.SymDense) {
	newMean := mat.NewVecDense(stateDim, nil)
	newMean.MulVec(f.motionMat, mean)

	var fp mat.Dense
	fp.Mul(f.motionMat, covariance)
	var fpf mat.Dense
	fpf.Mul(&fp, f.motionMat.T())

	newCov := mat.NewSymDense(stateDim, nil)
	for i := 0; i < stateDim; i++ {
		for j := i; j < stateDim; j++ {
			newCov.SetSym(i, j, 0.5*(fpf.At(i, j)+fpf.At(j, i))+state.processNoise.At(i, j))
		}
	}
	return newMean, newCov
}

// Project maps a state distribution into measurement space and folds in the
// adaptively estimated measurement noise. Higher detector confidence shrinks
// the heuristic noise baseline.
//
// Project advances the track's R estimate as a side effect. GatingDistance
// uses a read-only projection instead.
func (f *Filter) Project(state *NoiseState, mean *mat.VecDense, covariance *mat.SymDense, confidence float64) (*mat.VecDense, *mat.SymDense) {
	projMean, projCov := f.projectRaw(mean, covariance)

	h := mean.AtVec(3)
	std := [measDim]float64{
		f.cfg.StdWeightPosition * h,
		f.cfg.StdWeightPosition * h,
		f.cfg.StdAspectRatio,
		f.cfg.StdWeightPosition * h,
	}
	additive := mat.NewSymDense(measDim, nil)
	for i, s := range std {
		s *= 1 - confidence
		additive.SetSym(i, i, s*s)
	}

	state.adaptMeasurementNoise(f.cfg.ForgettingFactor, additive, projCov)

	projCov.AddSym(projCov, state.measurementNoise)
	return projMean, projCov
}

// projectRaw computes H·mean and H·cov·Hᵀ without any measurement noise.
func (f *Filter) projectRaw(mean *mat.VecDense, covariance *mat.SymDense) (*mat.VecDense, *mat.SymDense) {
	projMean := mat.NewVecDense(measDim, nil)
	projMean.MulVec(f.updateMat, mean)

	var hp mat.Dense
	hp.Mul(f.updateMat, covariance)
	var hph mat.Dense
	hph.Mul(&hp, f.updateMat.T())

	projCov := mat.NewSymDense(measDim, nil)
	for i := 0; i < measDim; i++ {
		for j := i; j < measDim; j++ {
			projCov.SetSym(i, j, 0.5*(hph.At(i, j)+hph.At(j, i)))
		}
	}
	return projMean, projCov
}

// Update runs the correction step against a matched measurement and returns
// the posterior state distribution. It advances R (via Project) and Q, and
// stores the post-update residual for the next projection cycle.
//
// The Kalman gain is solved through a Cholesky factorisation of the
// projected covariance rather than an explicit inverse. A factorisation
// failure surfaces as ErrNotPositiveDefinite.
func (f *Filter) Update(state *NoiseState, mean *mat.VecDense, covariance *mat.SymDense, measurement *mat.VecDense, confidence float64) (*mat.VecDense, *mat.SymDense, error) {
	projMean, projCov := f.Project(state, mean, covariance, confidence)

	innovation := mat.NewVecDense(measDim, nil)
	innovation.SubVec(measurement, projMean)

	var chol mat.Cholesky
	if ok := chol.Factorize(projCov); !ok {
		return nil, nil, fmt.Errorf("update: %w", ErrNotPositiveDefinite)
	}

	// K = cov·Hᵀ·S⁻¹, via S·Kᵀ = (cov·Hᵀ)ᵀ.
	var pht mat.Dense
	pht.Mul(covariance, f.updateMat.T())
	var gainT mat.Dense
	if err := chol.SolveTo(&gainT, pht.T()); err != nil {
		return nil, nil, fmt.Errorf("update: solve gain: %w", ErrNotPositiveDefinite)
	}
	var gain mat.Dense
	gain.CloneFrom(gainT.T())

	// Additive baseline mirrors Initiate's scaling, computed from the
	// predicted (pre-update) mean.
	dist := f.distanceToImageCenter(mean.AtVec(0), mean.AtVec(1))
	a := mean.AtVec(2)
	h := mean.AtVec(3)
	std := [stateDim]float64{
		f.cfg.StdWeightPosition * dist,
		f.cfg.StdWeightPosition * dist,
		a,
		f.cfg.StdWeightPosition * h,
		f.cfg.StdWeightVelocity * dist,
		f.cfg.StdWeightVelocity * dist,
		0.1 * a,
		f.cfg.StdWeightVelocity * h,
	}
	additive := mat.NewSymDense(stateDim, nil)
	for i, s := range std {
		additive.SetSym(i, i, s*s)
	}
	state.adaptProcessNoise(f.cfg.ForgettingFactor, additive, &gain, innovation)

	newMean := mat.NewVecDense(stateDim, nil)
	newMean.MulVec(&gain, innovation)
	newMean.AddVec(mean, newMean)

	// Joseph-form covariance update: (I−KH)·P·(I−KH)ᵀ + K·R·Kᵀ stays
	// symmetric positive semi-definite under floating-point rounding,
	// unlike the textbook (I−KH)·P.
	var kh mat.Dense
	kh.Mul(&gain, f.updateMat)
	ikh := identity(stateDim)
	ikh.Sub(ikh, &kh)

	var ip mat.Dense
	ip.Mul(ikh, covariance)
	var ipi mat.Dense
	ipi.Mul(&ip, ikh.T())

	var kr mat.Dense
	kr.Mul(&gain, state.measurementNoise)
	var krk mat.Dense
	krk.Mul(&kr, gain.T())

	newCov := mat.NewSymDense(stateDim, nil)
	for i := 0; i < stateDim; i++ {
		for j := i; j < stateDim; j++ {
			v := 0.5*(ipi.At(i, j)+ipi.At(j, i)) + 0.5*(krk.At(i, j)+krk.At(j, i))
			newCov.SetSym(i, j, v)
		}
	}

	state.storeResidual(f.updateMat, measurement, newMean)

	return newMean, newCov, nil
}

// identity returns an n×n identity matrix.
func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
