package boxkalman

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrInvalidMeasurement reports a measurement outside the filter contract.
var ErrInvalidMeasurement = errors.New("boxkalman: invalid measurement")

// ValidateMeasurement checks that a measurement satisfies the filter
// contract: four finite components with positive aspect ratio and height.
// The filter itself never validates; callers that cannot guarantee clean
// detections can run this at the boundary before Initiate or Update.
func ValidateMeasurement(measurement *mat.VecDense) error {
	if measurement.Len() != measDim {
		return fmt.Errorf("%w: want %d components, got %d", ErrInvalidMeasurement, measDim, measurement.Len())
	}
	for i := 0; i < measDim; i++ {
		v := measurement.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: component %d is not finite", ErrInvalidMeasurement, i)
		}
	}
	if a := measurement.AtVec(2); a <= 0 {
		return fmt.Errorf("%w: aspect ratio %v must be positive", ErrInvalidMeasurement, a)
	}
	if h := measurement.AtVec(3); h <= 0 {
		return fmt.Errorf("%w: height %v must be positive", ErrInvalidMeasurement, h)
	}
	return nil
}
