package boxkalman

// Config holds the noise heuristics for the adaptive filter.
type Config struct {
	// StdWeightPosition scales positional standard deviations relative to
	// box height or distance from the image centre.
	StdWeightPosition float64
	// StdWeightVelocity scales velocity standard deviations.
	StdWeightVelocity float64
	// StdAspectRatio is the baseline measurement std for the aspect ratio.
	StdAspectRatio float64
	// ForgettingFactor weights historical noise estimates against fresh
	// empirical samples in the Q/R recursions. Must be in (0, 1); larger
	// values smooth harder against single-frame outliers.
	ForgettingFactor float64
}

// DefaultConfig returns the production-default filter parameters.
func DefaultConfig() Config {
	return Config{
		StdWeightPosition: 1.0 / 20,
		StdWeightVelocity: 1.0 / 160,
		StdAspectRatio:    0.1,
		ForgettingFactor:  0.9,
	}
}
