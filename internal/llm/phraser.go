package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Phraser rewords a looked-up answer as a conversational reply. Answers the
// model cannot phrase are returned unchanged.
type Phraser struct {
	client LLMClient
	prompt string
	logger *zap.Logger
}

func NewPhraser(client LLMClient, prompt string, logger *zap.Logger) *Phraser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Phraser{client: client, prompt: prompt, logger: logger.Named("phraser")}
}

func (p *Phraser) Phrase(ctx context.Context, message, answer string) string {
	reply, err := p.client.Generate(ctx, fmt.Sprintf(p.prompt, message, answer))
	if err != nil {
		p.logger.Warn("llm phrasing failed", zap.Error(err))
		return answer
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return answer
	}
	return reply
}
