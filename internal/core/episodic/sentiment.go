package episodic

import (
	"github.com/jonreiter/govader"

	"github.com/agenthands/loubot/internal/core/model"
)

const (
	positiveThreshold = 0.05
	negativeThreshold = -0.05
)

// Analyzer scores text polarity in [-1, 1].
type Analyzer interface {
	Compound(text string) float64
}

type VaderAnalyzer struct {
	sia *govader.SentimentIntensityAnalyzer
}

func NewVaderAnalyzer() *VaderAnalyzer {
	return &VaderAnalyzer{sia: govader.NewSentimentIntensityAnalyzer()}
}

func (v *VaderAnalyzer) Compound(text string) float64 {
	return v.sia.PolarityScores(text).Compound
}

// Label maps a compound score onto three classes. Both thresholds are
// inclusive.
func Label(compound float64) model.Sentiment {
	switch {
	case compound >= positiveThreshold:
		return model.Positive
	case compound <= negativeThreshold:
		return model.Negative
	default:
		return model.Neutral
	}
}

func Classify(a Analyzer, text string) model.Sentiment {
	return Label(a.Compound(text))
}
