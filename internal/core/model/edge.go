package model

import "time"

type Relationship struct {
	Session   string    `json:"uid"`
	Subject   string    `json:"subject"`
	Relation  string    `json:"relation"`
	Object    string    `json:"object"`
	Inferred  bool      `json:"inferred"`
	CreatedAt time.Time `json:"created_at"`
}

type Direction string

const (
	Incoming Direction = "incoming"
	Outgoing Direction = "outgoing"
)

// RelatedPerson is one row of a relation lookup, seen from the queried person.
type RelatedPerson struct {
	Name      string    `json:"name"`
	Direction Direction `json:"direction"`
	Inferred  bool      `json:"inferred"`
}

type AttributeEdge string

const (
	FactAttribute AttributeEdge = "IS"
	HasAttribute  AttributeEdge = "HAS"
)
