// Package episodic keeps one episode per session and calendar day: an
// append-only chat log with its overall sentiment, plus a part per utterance.
package episodic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agenthands/loubot/internal/core/model"
	"github.com/agenthands/loubot/internal/graph"
)

type Manager struct {
	store    graph.EpisodeStore
	analyzer Analyzer
	logger   *zap.Logger

	Now func() time.Time
}

func NewManager(store graph.EpisodeStore, analyzer Analyzer, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if analyzer == nil {
		analyzer = NewVaderAnalyzer()
	}
	return &Manager{
		store:    store,
		analyzer: analyzer,
		logger:   logger.Named("episodic"),
		Now:      time.Now,
	}
}

// Today returns the current episode for session, creating it if needed.
func (m *Manager) Today(ctx context.Context, session string) (*model.SessionHistory, error) {
	return m.episodeAt(ctx, session, m.Now())
}

func (m *Manager) episodeAt(ctx context.Context, session string, now time.Time) (*model.SessionHistory, error) {
	h, err := m.store.GetOrCreateEpisode(ctx, session, EpisodeName(now), startOfDay(now), model.Neutral)
	if err != nil {
		return nil, fmt.Errorf("failed to load episode: %w", err)
	}
	return h, nil
}

// RecordTurn appends a user/bot exchange to today's episode, re-scores the
// whole log and stores one episode part per utterance.
func (m *Manager) RecordTurn(ctx context.Context, session, userText, botText string) (*model.SessionHistory, error) {
	now := m.Now()
	h, err := m.episodeAt(ctx, session, now)
	if err != nil {
		return nil, err
	}

	h.MemoryList = append(h.MemoryList,
		FormatLine(now, model.RoleUser, userText),
		FormatLine(now, model.RoleBot, botText))
	h.OverallSentiment = Classify(m.analyzer, StripPrefixes(strings.Join(h.MemoryList, "\n")))

	if err := m.store.SaveEpisode(ctx, h); err != nil {
		return nil, fmt.Errorf("failed to save episode: %w", err)
	}

	parts := []*model.EpisodePart{
		{Session: session, Episode: h.Name, Role: model.RoleUser, Response: userText, Sentiment: Classify(m.analyzer, userText), CreatedAt: now},
		{Session: session, Episode: h.Name, Role: model.RoleBot, Response: botText, Sentiment: Classify(m.analyzer, botText), CreatedAt: now},
	}
	for _, p := range parts {
		if err := m.store.AddEpisodePart(ctx, p); err != nil {
			return h, fmt.Errorf("failed to save %s episode part: %w", p.Role, err)
		}
	}

	m.logger.Debug("recorded turn",
		zap.String("session", session),
		zap.String("episode", h.Name),
		zap.String("sentiment", string(h.OverallSentiment)))
	return h, nil
}

// LastBotResponse returns the latest bot line of today's episode.
func (m *Manager) LastBotResponse(ctx context.Context, session string) (string, bool, error) {
	h, err := m.Today(ctx, session)
	if err != nil {
		return "", false, err
	}
	line, ok := LastBotLine(h.MemoryList)
	return line, ok, nil
}
