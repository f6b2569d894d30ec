package community

import (
	"fmt"
	"sort"

	"github.com/agenthands/loubot/internal/core/model"
)

// Detector groups a session's people into clusters. Edge direction and
// relation type are ignored.
type Detector interface {
	Detect(people []model.Person, rels []model.Relationship) ([]model.Cluster, error)
}

const (
	LabelPropagation = "label_propagation"
	Components       = "components"
)

// New returns the detector registered under algorithm.
func New(algorithm string) (Detector, error) {
	switch algorithm {
	case LabelPropagation, "":
		return NewLabelPropagationDetector(), nil
	case Components:
		return NewComponentDetector(), nil
	default:
		return nil, fmt.Errorf("unknown cluster algorithm %q", algorithm)
	}
}

// ComponentDetector returns connected components of two or more people.
type ComponentDetector struct{}

func NewComponentDetector() *ComponentDetector {
	return &ComponentDetector{}
}

func (d *ComponentDetector) Detect(people []model.Person, rels []model.Relationship) ([]model.Cluster, error) {
	names, adj := buildAdjacency(people, rels)

	visited := make(map[string]bool)
	var clusters []model.Cluster
	for _, n := range names {
		if visited[n] {
			continue
		}
		var component []string
		d.dfs(n, adj, visited, &component)
		if len(component) >= 2 {
			clusters = append(clusters, newCluster(component))
		}
	}

	sortClusters(clusters)
	return clusters, nil
}

func (d *ComponentDetector) dfs(u string, adj map[string]map[string]int, visited map[string]bool, component *[]string) {
	visited[u] = true
	*component = append(*component, u)
	for v := range adj[u] {
		if !visited[v] {
			d.dfs(v, adj, visited, component)
		}
	}
}

// buildAdjacency returns person names in input order and an undirected,
// weighted adjacency map. Edges to unknown people and self-loops are dropped.
func buildAdjacency(people []model.Person, rels []model.Relationship) ([]string, map[string]map[string]int) {
	adj := make(map[string]map[string]int)
	var names []string
	for _, p := range people {
		if _, ok := adj[p.FullName]; ok {
			continue
		}
		adj[p.FullName] = make(map[string]int)
		names = append(names, p.FullName)
	}

	for _, r := range rels {
		if r.Subject == r.Object {
			continue
		}
		if _, ok := adj[r.Subject]; !ok {
			continue
		}
		if _, ok := adj[r.Object]; !ok {
			continue
		}
		adj[r.Subject][r.Object]++
		adj[r.Object][r.Subject]++
	}
	return names, adj
}

func newCluster(members []string) model.Cluster {
	sorted := append([]string(nil), members...)
	sort.Strings(sorted)
	return model.Cluster{ID: sorted[0], Members: sorted}
}

// sortClusters orders by size, largest first, then by ID.
func sortClusters(clusters []model.Cluster) {
	sort.Slice(clusters, func(i, j int) bool {
		if len(clusters[i].Members) != len(clusters[j].Members) {
			return len(clusters[i].Members) > len(clusters[j].Members)
		}
		return clusters[i].ID < clusters[j].ID
	})
}
