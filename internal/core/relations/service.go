// Package relations answers "who is X's <relation>" questions from the
// session graph and projects the answer for visualization.
package relations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/loubot/internal/core/community"
	"github.com/agenthands/loubot/internal/core/model"
	"github.com/agenthands/loubot/internal/graph"
)

type Service struct {
	store    graph.KnowledgeStore
	detector community.Detector
	logger   *zap.Logger
}

func NewService(store graph.KnowledgeStore, detector community.Detector, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if detector == nil {
		detector = community.NewLabelPropagationDetector()
	}
	return &Service{store: store, detector: detector, logger: logger.Named("relations")}
}

// related looks name up lower-cased first, the way chat input arrives, and
// falls back to the name as typed. Unusable relation labels match nothing.
func (s *Service) related(ctx context.Context, session, name, relation string) (string, []model.RelatedPerson, error) {
	name = strings.TrimSpace(name)
	relation = strings.ToLower(strings.TrimSpace(relation))

	candidates := []string{strings.ToLower(name)}
	if name != candidates[0] {
		candidates = append(candidates, name)
	}

	for _, n := range candidates {
		people, err := s.store.RelatedPeople(ctx, session, n, relation)
		if errors.Is(err, graph.ErrInvalidLabel) {
			s.logger.Debug("unusable relation", zap.String("relation", relation))
			return n, nil, nil
		}
		if err != nil {
			return n, nil, fmt.Errorf("failed to query relation: %w", err)
		}
		if len(people) > 0 {
			return n, people, nil
		}
	}
	return candidates[0], nil, nil
}

// QueryRelation returns the distinct names linked to name by relation in
// either direction, incoming first.
func (s *Service) QueryRelation(ctx context.Context, session, name, relation string) ([]string, error) {
	_, people, err := s.related(ctx, session, name, relation)
	if err != nil {
		return nil, err
	}
	return uniqueNames(people), nil
}

func uniqueNames(people []model.RelatedPerson) []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range people {
		if p.Name == "" || seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		names = append(names, p.Name)
	}
	return names
}

// Graph projects the relation neighbourhood of name. The queried person is
// always present as the main node.
func (s *Service) Graph(ctx context.Context, session, name, relation string) (*model.GraphData, error) {
	matched, people, err := s.related(ctx, session, name, relation)
	if err != nil {
		return nil, err
	}
	return project(matched, strings.ToLower(strings.TrimSpace(relation)), people), nil
}

func project(name, relation string, people []model.RelatedPerson) *model.GraphData {
	data := &model.GraphData{
		Nodes: []model.GraphNode{{ID: name, Label: DisplayName(name), Type: model.NodeMain}},
		Links: []model.GraphLink{},
	}
	seen := map[string]bool{name: true}

	for _, p := range people {
		if !seen[p.Name] {
			seen[p.Name] = true
			data.Nodes = append(data.Nodes, model.GraphNode{ID: p.Name, Label: DisplayName(p.Name), Type: model.NodeRelated})
		}

		link := model.GraphLink{
			Source:       name,
			Target:       p.Name,
			Relationship: relation,
			Label:        DisplayRelation(relation),
			Inferred:     p.Inferred,
		}
		if p.Direction == model.Incoming {
			link.Source, link.Target = p.Name, name
		}
		data.Links = append(data.Links, link)
	}
	return data
}

// Answer is a relation lookup rendered for chat.
type Answer struct {
	Names []string
	Text  string
	Graph *model.GraphData
}

func (a *Answer) Found() bool {
	return len(a.Names) > 0
}

// Answer looks up the relation and formats the result. A lookup that fails
// or finds nobody yields the NoKnowledge text and no graph.
func (s *Service) Answer(ctx context.Context, session, name, relation string) *Answer {
	matched, people, err := s.related(ctx, session, name, relation)
	if err != nil {
		s.logger.Warn("relation lookup failed",
			zap.String("session", session),
			zap.String("name", name),
			zap.String("relation", relation),
			zap.Error(err))
		return &Answer{Text: NoKnowledge}
	}

	a := &Answer{Names: uniqueNames(people)}
	if !a.Found() {
		a.Text = NoKnowledge
		return a
	}
	a.Text = Capitalize(FormatNames(a.Names))
	a.Graph = project(matched, strings.ToLower(strings.TrimSpace(relation)), people)
	return a
}

// Clusters groups the session's people into kinship clusters.
func (s *Service) Clusters(ctx context.Context, session string) ([]model.Cluster, error) {
	people, err := s.store.People(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to load people: %w", err)
	}
	rels, err := s.store.Relationships(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to load relationships: %w", err)
	}
	clusters, err := s.detector.Detect(people, rels)
	if err != nil {
		return nil, err
	}
	if clusters == nil {
		clusters = []model.Cluster{}
	}
	return clusters, nil
}
