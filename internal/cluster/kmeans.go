// Package cluster implements K-Means clustering over word embedding vectors,
// used to reduce a video's vocabulary to a few representative keywords.
package cluster

import (
	"math"
	"math/rand"
)

// Point is a word with its embedding vector.
type Point struct {
	Word   string
	Vector []float64
}

// Cluster is one K-Means cluster.
type Cluster struct {
	Centroid []float64
	Points   []Point
}

// MostCentral returns the member point closest to the centroid.
func (c *Cluster) MostCentral() Point {
	best := 0
	bestDist := math.MaxFloat64
	for i, p := range c.Points {
		if d := euclidean(p.Vector, c.Centroid); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return c.Points[best]
}

// AvgDistanceToCenter returns the mean member distance to the centroid.
func (c *Cluster) AvgDistanceToCenter() float64 {
	if len(c.Points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range c.Points {
		sum += euclidean(p.Vector, c.Centroid)
	}
	return sum / float64(len(c.Points))
}

const maxIterations = 100

// KMeans partitions points into k clusters by Euclidean distance.
// k is capped at len(points). Empty clusters are dropped from the result.
func KMeans(points []Point, k int) []Cluster {
	if len(points) == 0 {
		return nil
	}
	if k > len(points) {
		k = len(points)
	}
	if k < 1 {
		k = 1
	}

	rng := rand.New(rand.NewSource(int64(len(points))*31 + int64(k)))
	centroids := make([][]float64, k)
	perm := rng.Perm(len(points))
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), points[perm[i]].Vector...)
	}

	assign := make([]int, len(points))
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range points {
			best := 0
			bestDist := math.MaxFloat64
			for j, c := range centroids {
				if d := euclidean(p.Vector, c); d < bestDist {
					bestDist = d
					best = j
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}
		recomputeCentroids(points, assign, centroids)
	}

	clusters := make([]Cluster, 0, k)
	for j := 0; j < k; j++ {
		var members []Point
		for i, p := range points {
			if assign[i] == j {
				members = append(members, p)
			}
		}
		if len(members) == 0 {
			continue
		}
		clusters = append(clusters, Cluster{Centroid: centroids[j], Points: members})
	}
	return clusters
}

func recomputeCentroids(points []Point, assign []int, centroids [][]float64) {
	dim := len(points[0].Vector)
	counts := make([]int, len(centroids))
	sums := make([][]float64, len(centroids))
	for j := range centroids {
		sums[j] = make([]float64, dim)
	}
	for i, p := range points {
		j := assign[i]
		counts[j]++
		for d := 0; d < dim; d++ {
			sums[j][d] += p.Vector[d]
		}
	}
	for j := range centroids {
		if counts[j] == 0 {
			continue
		}
		for d := 0; d < dim; d++ {
			centroids[j][d] = sums[j][d] / float64(counts[j])
		}
	}
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
