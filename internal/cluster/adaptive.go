package cluster

import "math"

// DefaultMinPointsPerCluster is the feasibility floor for the adaptive sweep:
// a variant only becomes the best candidate when its clusters average at
// least this many points.
const DefaultMinPointsPerCluster = 4

// Adaptive sweeps candidate cluster counts from len(points)/2 down to 2 and
// returns the variant with locally minimal average intra-cluster distance,
// subject to the minimum average points-per-cluster constraint. The sweep
// stops early once the distance rises again after a feasible candidate was
// found. Fewer than 2 points yield singleton clusters.
func Adaptive(points []Point, minPointsPerCluster int) []Cluster {
	if len(points) == 0 {
		return nil
	}
	if len(points) < 2 {
		return singletons(points)
	}
	if minPointsPerCluster <= 0 {
		minPointsPerCluster = DefaultMinPointsPerCluster
	}

	start := len(points) / 2
	end := 2
	if start < end {
		end = start
	}

	lastDist := math.MaxFloat64
	var lastClusters []Cluster
	bestDist := math.MaxFloat64
	var bestClusters []Cluster
	bestWasSet := false

	for k := start; k >= end; k-- {
		clusters := KMeans(points, k)
		avgDist := averageDistance(clusters)

		if bestClusters == nil {
			bestClusters = clusters
		}
		if avgDist < bestDist {
			if averagePoints(clusters) >= float64(minPointsPerCluster) {
				bestDist = avgDist
				bestClusters = clusters
				bestWasSet = true
			}
		}
		if lastClusters != nil && lastDist > avgDist && bestWasSet {
			bestClusters = clusters
			break
		}
		lastDist = avgDist
		lastClusters = clusters
	}
	return bestClusters
}

// FixedWithPruning clusters into exactly k clusters and keeps only those
// whose size is at least minFrac of the largest cluster's size. Used for
// vocabularies exceeding the representative-keyword cap, where sparse
// clusters are noise.
func FixedWithPruning(points []Point, k int, minFrac float64) []Cluster {
	if len(points) == 0 {
		return nil
	}
	if len(points) < 2 {
		return singletons(points)
	}
	clusters := KMeans(points, k)
	largest := 0
	for _, c := range clusters {
		if len(c.Points) > largest {
			largest = len(c.Points)
		}
	}
	threshold := minFrac * float64(largest)
	kept := clusters[:0]
	for _, c := range clusters {
		if float64(len(c.Points)) >= threshold {
			kept = append(kept, c)
		}
	}
	return kept
}

func singletons(points []Point) []Cluster {
	out := make([]Cluster, len(points))
	for i, p := range points {
		out[i] = Cluster{
			Centroid: append([]float64(nil), p.Vector...),
			Points:   []Point{p},
		}
	}
	return out
}

func averageDistance(clusters []Cluster) float64 {
	if len(clusters) == 0 {
		return 0
	}
	var sum float64
	for _, c := range clusters {
		sum += c.AvgDistanceToCenter()
	}
	return sum / float64(len(clusters))
}

func averagePoints(clusters []Cluster) float64 {
	if len(clusters) == 0 {
		return 0
	}
	var sum int
	for _, c := range clusters {
		sum += len(c.Points)
	}
	return float64(sum) / float64(len(clusters))
}
