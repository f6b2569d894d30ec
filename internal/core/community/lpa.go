// Package community finds kinship clusters in a session's relationship graph.
package community

import (
	"sort"

	"github.com/agenthands/loubot/internal/core/model"
)

// LabelPropagationDetector clusters people with the Label Propagation
// Algorithm. Ties go to the lexicographically largest label so results are
// stable across runs.
type LabelPropagationDetector struct {
	MaxIterations int
}

func NewLabelPropagationDetector() *LabelPropagationDetector {
	return &LabelPropagationDetector{
		MaxIterations: 20,
	}
}

func (d *LabelPropagationDetector) Detect(people []model.Person, rels []model.Relationship) ([]model.Cluster, error) {
	if len(people) == 0 {
		return nil, nil
	}

	names, adj := buildAdjacency(people, rels)

	labels := make(map[string]string, len(names))
	for _, n := range names {
		labels[n] = n
	}

	for iter := 0; iter < d.MaxIterations; iter++ {
		changed := 0

		for _, u := range names {
			neighbors := adj[u]
			if len(neighbors) == 0 {
				continue
			}

			counts := make(map[string]int)
			best := 0
			for v, weight := range neighbors {
				l := labels[v]
				counts[l] += weight
				if counts[l] > best {
					best = counts[l]
				}
			}

			var candidates []string
			for l, c := range counts {
				if c == best {
					candidates = append(candidates, l)
				}
			}
			sort.Strings(candidates)
			next := candidates[len(candidates)-1]

			if labels[u] != next {
				labels[u] = next
				changed++
			}
		}

		if changed == 0 {
			break
		}
	}

	groups := make(map[string][]string)
	for _, n := range names {
		groups[labels[n]] = append(groups[labels[n]], n)
	}

	var clusters []model.Cluster
	for _, members := range groups {
		if len(members) >= 2 {
			clusters = append(clusters, newCluster(members))
		}
	}
	sortClusters(clusters)
	return clusters, nil
}
