// Package graph persists people, relationships, episodes and social contacts.
// Neo4jStore is the production backend; MemStore backs tests and the
// "memory" graph backend.
package graph

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/agenthands/loubot/internal/core/model"
	"github.com/agenthands/loubot/internal/driver"
)

var (
	ErrStoreUnavailable = errors.New("graph store unavailable")
	ErrInvalidLabel     = errors.New("invalid relation label")
)

var labelPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SanitizeLabel trims a relation label and rejects anything that is not a
// plain identifier. Labels become edge types, so they never reach Cypher
// unchecked.
func SanitizeLabel(label string) (string, error) {
	l := strings.TrimSpace(label)
	if !labelPattern.MatchString(l) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	return l, nil
}

// socialLabel is the edge type linking an account to a contact mentioned as
// relation, e.g. "Best Friend" becomes is_best_friend.
func socialLabel(relation string) string {
	return driver.SocialPrefix + strings.Join(strings.Fields(strings.ToLower(relation)), "_")
}

type KnowledgeStore interface {
	// UpsertPerson returns the Person named name in session, creating it if absent.
	UpsertPerson(ctx context.Context, session, name string) (*model.Person, error)
	AddAttribute(ctx context.Context, session, name, value string, edge model.AttributeEdge) (*model.Attribute, error)
	// MergeRelationship creates subject -relation-> object unless it exists.
	MergeRelationship(ctx context.Context, rel model.Relationship) error
	CreateRelationship(ctx context.Context, rel model.Relationship) error
	RelationshipExists(ctx context.Context, session, subject, relation, object string) (bool, error)
	RelatedPeople(ctx context.Context, session, name, relation string) ([]model.RelatedPerson, error)
	People(ctx context.Context, session string) ([]model.Person, error)
	Relationships(ctx context.Context, session string) ([]model.Relationship, error)
}

type EpisodeStore interface {
	GetOrCreateEpisode(ctx context.Context, session, name string, start time.Time, sentiment model.Sentiment) (*model.SessionHistory, error)
	SaveEpisode(ctx context.Context, h *model.SessionHistory) error
	AddEpisodePart(ctx context.Context, part *model.EpisodePart) error
	EpisodeParts(ctx context.Context, session, episode string) ([]model.EpisodePart, error)
}

type SocialStore interface {
	AddSocialContact(ctx context.Context, c *model.SocialContact) error
	SocialLinkExists(ctx context.Context, session, accountEmail, name string) (bool, error)
}

type Store interface {
	KnowledgeStore
	EpisodeStore
	SocialStore
	Ping(ctx context.Context) error
}
