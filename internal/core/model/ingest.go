package model

type IngestSummary struct {
	FactsProcessed                 int `json:"factsProcessed"`
	DirectRelationshipsProcessed   int `json:"directRelationshipsProcessed"`
	InferredRelationshipsProcessed int `json:"inferredRelationshipsProcessed"`
	RuleCount                      int `json:"ruleCount"`
}

// Inference is one solved (name, rule) pair: Subject is related to every
// entry of Objects by Relation.
type Inference struct {
	Subject  string
	Relation string
	Objects  []string
}
