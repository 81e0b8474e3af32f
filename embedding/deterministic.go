package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"math/rand"
)

// Deterministic is a self-contained Provider that derives a unit vector
// from a SHA-256 digest of the input text. It has no semantic signal and
// exists for two reasons: as the default provider when no external service
// is configured (the pipeline stays exercisable end to end), and as the
// provider every test uses, since identical text always embeds to the
// identical vector.
type Deterministic struct {
	model string
	dim   int
}

// NewDeterministic creates a Deterministic provider of the given
// dimensionality.
func NewDeterministic(model string, dim int) *Deterministic {
	if dim <= 0 {
		dim = 256
	}
	return &Deterministic{model: model, dim: dim}
}

func (d *Deterministic) Dimensions() int { return d.dim }
func (d *Deterministic) Model() string   { return d.model }

func (d *Deterministic) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sum := sha256.Sum256([]byte(text))
	seed := int64(binary.BigEndian.Uint64(sum[:8]))
	rng := rand.New(rand.NewSource(seed))

	vec := make([]float64, d.dim)
	var norm float64
	for i := range vec {
		vec[i] = rng.NormFloat64()
		norm += vec[i] * vec[i]
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

var _ Provider = (*Deterministic)(nil)
