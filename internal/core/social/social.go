// Package social records people the bot asked the user about ("Do you know
// X?") once the user says how they are related.
package social

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/loubot/internal/core/model"
	"github.com/agenthands/loubot/internal/graph"
)

var ErrNoMention = errors.New("no recent \"Do you know\" question")

// History yields the latest bot line of the session's current episode.
// *episodic.Manager satisfies it.
type History interface {
	LastBotResponse(ctx context.Context, session string) (string, bool, error)
}

type Service struct {
	store   graph.SocialStore
	history History
	logger  *zap.Logger
}

func NewService(store graph.SocialStore, history History, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, history: history, logger: logger.Named("social")}
}

// ParseMention extracts X from a bot line such as "Do you know X?".
func ParseMention(line string) (string, bool) {
	_, after, found := strings.Cut(line, "know")
	if !found {
		return "", false
	}
	name, _, _ := strings.Cut(after, "?")
	name = strings.TrimSpace(name)
	return name, name != ""
}

// Question asks about candidate unless accountEmail is already linked to them.
func (s *Service) Question(ctx context.Context, session, accountEmail, candidate string) (string, bool, error) {
	known, err := s.AlreadyKnown(ctx, session, accountEmail, candidate)
	if err != nil || known {
		return "", false, err
	}
	return fmt.Sprintf("Do you know %s?", candidate), true, nil
}

func (s *Service) AlreadyKnown(ctx context.Context, session, accountEmail, name string) (bool, error) {
	known, err := s.store.SocialLinkExists(ctx, session, accountEmail, name)
	if err != nil {
		return false, fmt.Errorf("failed to check social link: %w", err)
	}
	return known, nil
}

// RecordMention links the person named in the last "Do you know" question to
// accountEmail as relation. It reports false when the link already existed.
func (s *Service) RecordMention(ctx context.Context, session, accountEmail, relation string) (*model.SocialContact, bool, error) {
	line, ok, err := s.history.LastBotResponse(ctx, session)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, ErrNoMention
	}
	name, ok := ParseMention(line)
	if !ok {
		return nil, false, ErrNoMention
	}

	c := &model.SocialContact{
		Session:      session,
		Name:         name,
		AccountEmail: accountEmail,
		Relation:     strings.ToLower(strings.TrimSpace(relation)),
	}

	known, err := s.AlreadyKnown(ctx, session, accountEmail, name)
	if err != nil {
		return nil, false, err
	}
	if known {
		return c, false, nil
	}

	if err := s.store.AddSocialContact(ctx, c); err != nil {
		return nil, false, fmt.Errorf("failed to record social contact: %w", err)
	}
	s.logger.Info("recorded social contact",
		zap.String("session", session),
		zap.String("name", name),
		zap.String("relation", c.Relation))
	return c, true, nil
}
