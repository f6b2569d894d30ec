// Package chat runs one conversational turn: it answers relation questions
// from the knowledge graph, fills scripted placeholders and records the
// exchange in the session's episodic memory.
package chat

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/agenthands/loubot/internal/core/episodic"
	"github.com/agenthands/loubot/internal/core/model"
	"github.com/agenthands/loubot/internal/core/relations"
	"github.com/agenthands/loubot/internal/core/social"
)

var tracer = otel.Tracer("github.com/agenthands/loubot/internal/chat")

// Phraser turns a factual answer into a conversational reply.
// *llm.Phraser satisfies it.
type Phraser interface {
	Phrase(ctx context.Context, message, answer string) string
}

type Reply struct {
	Text    string               `json:"bot_response"`
	Graph   *model.GraphData     `json:"graph_data,omitempty"`
	Contact *model.SocialContact `json:"contact,omitempty"`
	// Created is false when the contact was already linked.
	Created bool `json:"created,omitempty"`
}

type Service struct {
	relations *relations.Service
	episodes  *episodic.Manager
	social    *social.Service
	renderer  *Renderer
	logger    *zap.Logger

	// Phraser is optional; nil leaves answers as formatted name lists.
	Phraser Phraser
}

func NewService(rel *relations.Service, episodes *episodic.Manager, soc *social.Service, renderer *Renderer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = NewRenderer(nil, nil, logger)
	}
	return &Service{
		relations: rel,
		episodes:  episodes,
		social:    soc,
		renderer:  renderer,
		logger:    logger.Named("chat"),
	}
}

// RelationTurn answers "who is <relation> of <subject>" and records the turn.
func (s *Service) RelationTurn(ctx context.Context, session, message, subject, relation string) (*Reply, error) {
	ctx, span := tracer.Start(ctx, "chat.RelationTurn")
	defer span.End()

	answer := s.relations.Answer(ctx, session, subject, relation)
	text := answer.Text
	if answer.Found() && s.Phraser != nil {
		text = s.Phraser.Phrase(ctx, message, text)
	}

	reply := &Reply{Text: s.renderer.Render(ctx, session, text), Graph: answer.Graph}
	s.record(ctx, session, message, reply.Text)
	return reply, nil
}

// SocialTurn links the person from the bot's last "Do you know X?" question
// to the account, then records the turn.
func (s *Service) SocialTurn(ctx context.Context, session, accountEmail, relation, message, botResponse string) (*Reply, error) {
	ctx, span := tracer.Start(ctx, "chat.SocialTurn")
	defer span.End()

	contact, created, err := s.social.RecordMention(ctx, session, accountEmail, relation)
	if err != nil && !errors.Is(err, social.ErrNoMention) {
		return nil, fmt.Errorf("failed to record mention: %w", err)
	}

	reply := &Reply{
		Text:    s.renderer.Render(ctx, session, botResponse),
		Contact: contact,
		Created: created,
	}
	s.record(ctx, session, message, reply.Text)
	return reply, nil
}

// Turn records a scripted exchange after filling its placeholders.
func (s *Service) Turn(ctx context.Context, session, message, botResponse string) (*Reply, error) {
	ctx, span := tracer.Start(ctx, "chat.Turn")
	defer span.End()

	reply := &Reply{Text: s.renderer.Render(ctx, session, botResponse)}
	s.record(ctx, session, message, reply.Text)
	return reply, nil
}

// record failures are logged; the reply still goes out.
func (s *Service) record(ctx context.Context, session, message, botText string) {
	if _, err := s.episodes.RecordTurn(ctx, session, message, botText); err != nil {
		s.logger.Warn("failed to record turn",
			zap.String("session", session),
			zap.Error(err))
	}
}
