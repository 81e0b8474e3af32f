package vectormath

import (
	"math"
	"math/rand"
)

// KMeansResult is the outcome of one k-means run.
type KMeansResult struct {
	// Assignments[i] is the cluster index assigned to vectors[i].
	Assignments []int
	// Centroids holds the final (not yet renormalized-to-unit-length)
	// cluster means, one per cluster.
	Centroids [][]float64
	Iterations int
}

// KMeans runs Lloyd's algorithm with k clusters over vectors, seeded by
// seed for reproducible initial centroid selection. It stops when
// assignments stop changing or maxIterations is reached.
func KMeans(vectors [][]float64, k int, seed int64, maxIterations int) KMeansResult {
	n := len(vectors)
	if n == 0 || k <= 0 {
		return KMeansResult{}
	}
	if k > n {
		k = n
	}
	dim := len(vectors[0])
	rng := rand.New(rand.NewSource(seed))

	centroids := kmeansPlusPlusInit(vectors, k, rng)
	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}

	iter := 0
	for ; iter < maxIterations; iter++ {
		changed := false
		for i, v := range vectors {
			best, bestDist := 0, math.MaxFloat64
			for c, centroid := range centroids {
				d := squaredDistance(v, centroid)
				if d < bestDist {
					bestDist, best = d, c
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		newCentroids := make([][]float64, k)
		counts := make([]int, k)
		for c := range newCentroids {
			newCentroids[c] = make([]float64, dim)
		}
		for i, v := range vectors {
			c := assignments[i]
			counts[c]++
			for d := 0; d < dim; d++ {
				newCentroids[c][d] += v[d]
			}
		}
		for c := range newCentroids {
			if counts[c] == 0 {
				// Re-seed an empty cluster from the farthest point to avoid
				// a permanently dead centroid.
				newCentroids[c] = vectors[farthestPoint(vectors, centroids)]
				continue
			}
			for d := range newCentroids[c] {
				newCentroids[c][d] /= float64(counts[c])
			}
		}
		centroids = newCentroids

		if !changed && iter > 0 {
			iter++
			break
		}
	}

	return KMeansResult{Assignments: assignments, Centroids: centroids, Iterations: iter}
}

func kmeansPlusPlusInit(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(vectors)
	centroids := make([][]float64, 0, k)
	first := vectors[rng.Intn(n)]
	centroids = append(centroids, append([]float64(nil), first...))

	dist := make([]float64, n)
	for len(centroids) < k {
		var total float64
		for i, v := range vectors {
			d := squaredDistance(v, centroids[len(centroids)-1])
			if len(centroids) == 1 || d < dist[i] {
				dist[i] = d
			}
			total += dist[i]
		}
		if total == 0 {
			// All remaining points coincide with chosen centroids; pad with
			// repeats to keep k stable.
			centroids = append(centroids, append([]float64(nil), vectors[rng.Intn(n)]...))
			continue
		}
		target := rng.Float64() * total
		var cum float64
		chosen := n - 1
		for i, d := range dist {
			cum += d
			if cum >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, append([]float64(nil), vectors[chosen]...))
	}
	return centroids
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

func farthestPoint(vectors, centroids [][]float64) int {
	best, bestDist := 0, -1.0
	for i, v := range vectors {
		minDist := math.MaxFloat64
		for _, c := range centroids {
			d := squaredDistance(v, c)
			if d < minDist {
				minDist = d
			}
		}
		if minDist > bestDist {
			bestDist, best = minDist, i
		}
	}
	return best
}
