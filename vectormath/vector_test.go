package vectormath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineIdentical(t *testing.T) {
	v := []float64{1, 2, 3}
	assert.InDelta(t, 1.0, Cosine(v, v), 1e-9)
}

func TestCosineOrthogonal(t *testing.T) {
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
}

func TestCosineZeroVector(t *testing.T) {
	assert.Equal(t, 0.0, Cosine([]float64{0, 0}, []float64{1, 1}))
}

func TestNormalizeUnitLength(t *testing.T) {
	v := Normalize([]float64{3, 4})
	assert.InDelta(t, 1.0, Norm(v), 1e-9)
	assert.InDelta(t, 0.6, v[0], 1e-9)
	assert.InDelta(t, 0.8, v[1], 1e-9)
}

func TestNormalizeZeroVector(t *testing.T) {
	v := Normalize([]float64{0, 0, 0})
	assert.Equal(t, []float64{0, 0, 0}, v)
}

func TestMean(t *testing.T) {
	m := Mean([][]float64{{1, 1}, {3, 3}}, 2)
	assert.Equal(t, []float64{2, 2}, m)
}

func TestWeightedMean(t *testing.T) {
	a := []float64{1, 0}
	b := []float64{0, 1}
	m := WeightedMean(a, 300, b, 40)
	require.Len(t, m, 2)
	assert.InDelta(t, 300.0/340.0, m[0], 1e-9)
	assert.InDelta(t, 40.0/340.0, m[1], 1e-9)
}

func TestIncrementalMeanMatchesBatchMean(t *testing.T) {
	vectors := [][]float64{{1, 2}, {3, 4}, {5, 6}, {7, 8}}
	mean := append([]float64(nil), vectors[0]...)
	for i, v := range vectors[1:] {
		mean = IncrementalMean(mean, i+1, v)
	}
	batch := Mean(vectors, 2)
	for i := range mean {
		assert.InDelta(t, batch[i], mean[i], 1e-9)
	}
}

func TestKMeansSeparatesTwoTightClusters(t *testing.T) {
	vectors := make([][]float64, 0, 40)
	for i := 0; i < 20; i++ {
		vectors = append(vectors, []float64{1 + 0.01*float64(i%3), 0})
	}
	for i := 0; i < 20; i++ {
		vectors = append(vectors, []float64{0, 1 + 0.01*float64(i%3)})
	}

	result := KMeans(vectors, 2, 42, 100)
	require.Len(t, result.Assignments, 40)

	firstHalf := result.Assignments[0]
	for _, a := range result.Assignments[:20] {
		assert.Equal(t, firstHalf, a)
	}
	secondHalf := result.Assignments[20]
	assert.NotEqual(t, firstHalf, secondHalf)
	for _, a := range result.Assignments[20:] {
		assert.Equal(t, secondHalf, a)
	}
}

func TestKMeansStableUnderFixedSeed(t *testing.T) {
	vectors := [][]float64{{1, 0}, {0.9, 0.1}, {0, 1}, {0.1, 0.9}}
	r1 := KMeans(vectors, 2, 7, 50)
	r2 := KMeans(vectors, 2, 7, 50)
	assert.Equal(t, r1.Assignments, r2.Assignments)
}

func TestMeanSilhouettePrefersWellSeparatedClusters(t *testing.T) {
	tight := [][]float64{{1, 0}, {1.01, 0}, {0, 1}, {0, 1.01}}
	tightAssign := []int{0, 0, 1, 1}
	mixed := [][]float64{{1, 0}, {0, 1}, {1.01, 0}, {0, 1.01}}
	mixedAssign := []int{0, 0, 1, 1}

	sTight := MeanSilhouette(tight, tightAssign, 2)
	sMixed := MeanSilhouette(mixed, mixedAssign, 2)
	assert.Greater(t, sTight, sMixed)
}

func TestMeanSilhouetteBoundedRange(t *testing.T) {
	vectors := [][]float64{{1, 0}, {2, 0}, {0, 1}, {0, 2}}
	assignments := []int{0, 0, 1, 1}
	s := MeanSilhouette(vectors, assignments, 2)
	assert.True(t, s >= -1 && s <= 1)
	assert.False(t, math.IsNaN(s))
}
