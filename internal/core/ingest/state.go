package ingest

// State is a phase of one ingestion run. Runs move forward only.
type State int

const (
	Parsing State = iota
	MaterializingFacts
	MaterializingRules
	Inferring
	Done
)

func (s State) String() string {
	switch s {
	case Parsing:
		return "PARSING"
	case MaterializingFacts:
		return "MATERIALIZING_FACTS"
	case MaterializingRules:
		return "MATERIALIZING_RULES"
	case Inferring:
		return "INFERRING"
	case Done:
		return "DONE"
	}
	return "UNKNOWN"
}
