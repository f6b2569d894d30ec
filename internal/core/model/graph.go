package model

const (
	NodeMain    = "main"
	NodeRelated = "related"
)

type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

type GraphLink struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	Relationship string `json:"relationship"`
	Label        string `json:"label"`
	Inferred     bool   `json:"inferred"`
}

type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

// Cluster is a group of people more connected to each other than to the
// rest of the session graph.
type Cluster struct {
	ID      string   `json:"id"`
	Members []string `json:"members"`
}
