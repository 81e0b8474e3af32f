package embedding

import (
	"context"
	"fmt"

	"github.com/akfldk1028/ARR-sub002/korerr"
)

// Provider is the text-to-vector contract. Implementations must return
// unit-length vectors of exactly Dimensions() components and must be safe
// for concurrent use.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Dimensions() int
	Model() string
}

// CheckDimension verifies vec has the expected length, wrapping the
// failure as a dimension_mismatch. Every wrapper in this package and
// every centroid update in the domain manager calls through this.
func CheckDimension(vec []float64, want int) error {
	if len(vec) != want {
		return korerr.Wrap(korerr.KindDimensionMismatch,
			fmt.Errorf("embedding has %d dimensions, want %d", len(vec), want))
	}
	return nil
}
