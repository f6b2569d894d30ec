package graph

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/loubot/internal/core/model"
	"github.com/agenthands/loubot/internal/driver"
)

var fixedNow = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

func newTestStore(d *MockDriver) *Neo4jStore {
	s := NewNeo4jStore(d)
	counter := 0
	s.UUIDGenerator = func() string {
		counter++
		return fmt.Sprintf("uuid-%d", counter)
	}
	s.Now = func() time.Time { return fixedNow }
	return s
}

func TestPing(t *testing.T) {
	d := &MockDriver{}
	s := newTestStore(d)

	require.NoError(t, s.Ping(context.Background()))
	assert.Equal(t, driver.PingQuery, d.QueryExecuted)

	d.Err = errors.New("connection refused")
	err := s.Ping(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestUpsertPerson(t *testing.T) {
	d := &MockDriver{
		MockResult: result([]string{"id", "full_name", "created_at"},
			[]interface{}{"existing-id", "john", fixedNow}),
	}
	s := newTestStore(d)

	p, err := s.UpsertPerson(context.Background(), "alice@example.com", "john")
	require.NoError(t, err)

	assert.Equal(t, driver.UpsertPersonQuery, d.QueryExecuted)
	assert.Equal(t, "alice@example.com", d.QueryParams["session"])
	assert.Equal(t, "john", d.QueryParams["name"])
	assert.Equal(t, "uuid-1", d.QueryParams["id"])

	assert.Equal(t, "existing-id", p.ID)
	assert.Equal(t, "john", p.FullName)
	assert.Equal(t, "alice@example.com", p.Session)
	assert.Equal(t, fixedNow, p.CreatedAt)
}

func TestUpsertPersonNoRows(t *testing.T) {
	s := newTestStore(&MockDriver{})

	_, err := s.UpsertPerson(context.Background(), "s", "john")
	assert.Error(t, err)
}

func TestAddAttribute(t *testing.T) {
	d := &MockDriver{MockResult: result([]string{"id"}, []interface{}{"uuid-1"})}
	s := newTestStore(d)

	attr, err := s.AddAttribute(context.Background(), "s", "john", "male", model.FactAttribute)
	require.NoError(t, err)

	assert.Contains(t, d.QueryExecuted, "CREATE (p)-[:IS]->(a)")
	assert.Equal(t, "male", d.QueryParams["attribute"])
	assert.Equal(t, "john", d.QueryParams["name"])
	assert.Equal(t, "uuid-1", attr.ID)
	assert.Equal(t, "male", attr.Value)
}

func TestMergeRelationship(t *testing.T) {
	d := &MockDriver{MockResult: countResult(1)}
	s := newTestStore(d)

	err := s.MergeRelationship(context.Background(), model.Relationship{
		Session: "s", Subject: "john", Relation: "parent", Object: "mary",
	})
	require.NoError(t, err)

	assert.Contains(t, d.QueryExecuted, "MERGE (n1)-[r:`parent`]->(n2)")
	assert.Equal(t, "john", d.QueryParams["subject"])
	assert.Equal(t, "mary", d.QueryParams["object"])
	assert.Equal(t, false, d.QueryParams["inferred"])
	assert.Equal(t, fixedNow, d.QueryParams["created_at"])
}

func TestCreateRelationshipMissingEndpoints(t *testing.T) {
	d := &MockDriver{MockResult: countResult(0)}
	s := newTestStore(d)

	err := s.CreateRelationship(context.Background(), model.Relationship{
		Session: "s", Subject: "john", Relation: "sibling", Object: "ghost", Inferred: true,
	})
	assert.Error(t, err)
	assert.Contains(t, d.QueryExecuted, "CREATE (n1)-[r:`sibling`")
	assert.Equal(t, true, d.QueryParams["inferred"])
}

func TestRelationshipRejectsInvalidLabel(t *testing.T) {
	d := &MockDriver{}
	s := newTestStore(d)

	err := s.MergeRelationship(context.Background(), model.Relationship{
		Session: "s", Subject: "a", Relation: "x]->(m) DETACH DELETE m //", Object: "b",
	})
	assert.ErrorIs(t, err, ErrInvalidLabel)

	_, err = s.RelationshipExists(context.Background(), "s", "a", "bad label", "b")
	assert.ErrorIs(t, err, ErrInvalidLabel)

	assert.Zero(t, d.Calls)
}

func TestRelationshipExists(t *testing.T) {
	d := &MockDriver{ResultQueue: []neo4j.EagerResult{countResult(1), countResult(0)}}
	s := newTestStore(d)

	ok, err := s.RelationshipExists(context.Background(), "s", "john", "parent", "mary")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.RelationshipExists(context.Background(), "s", "mary", "parent", "john")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRelatedPeople(t *testing.T) {
	d := &MockDriver{
		MockResult: result([]string{"name", "direction", "inferred"},
			[]interface{}{"john", "incoming", false},
			[]interface{}{"sue", "outgoing", true}),
	}
	s := newTestStore(d)

	people, err := s.RelatedPeople(context.Background(), "s", "mary", "parent")
	require.NoError(t, err)

	assert.Contains(t, d.QueryExecuted, "UNION")
	assert.Equal(t, []model.RelatedPerson{
		{Name: "john", Direction: model.Incoming},
		{Name: "sue", Direction: model.Outgoing, Inferred: true},
	}, people)
}

func TestRelationships(t *testing.T) {
	d := &MockDriver{
		MockResult: result([]string{"source", "relation", "target", "inferred"},
			[]interface{}{"john", "parent", "mary", false}),
	}
	s := newTestStore(d)

	rels, err := s.Relationships(context.Background(), "s")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "parent", rels[0].Relation)
	assert.Equal(t, "s", rels[0].Session)
}

func TestGetOrCreateEpisode(t *testing.T) {
	d := &MockDriver{
		MockResult: result([]string{"name", "start_session", "overall_sentiment", "memory_list"},
			[]interface{}{"Episode - 2024-05-01", fixedNow, "neutral", []interface{}{"line one"}}),
	}
	s := newTestStore(d)

	h, err := s.GetOrCreateEpisode(context.Background(), "s", "Episode - 2024-05-01", fixedNow, model.Neutral)
	require.NoError(t, err)

	assert.Equal(t, "neutral", d.QueryParams["sentiment"])
	assert.Equal(t, "Episode - 2024-05-01", h.Name)
	assert.Equal(t, model.Neutral, h.OverallSentiment)
	assert.Equal(t, []string{"line one"}, h.MemoryList)
	assert.Equal(t, fixedNow, h.StartSession)
}

func TestAddEpisodePart(t *testing.T) {
	d := &MockDriver{MockResult: result([]string{"id"}, []interface{}{"uuid-1"})}
	s := newTestStore(d)

	part := &model.EpisodePart{Session: "s", Episode: "Episode - 2024-05-01", Role: model.RoleUser, Response: "hi", Sentiment: model.Neutral}
	require.NoError(t, s.AddEpisodePart(context.Background(), part))

	assert.Equal(t, "uuid-1", part.ID)
	assert.Equal(t, fixedNow, part.CreatedAt)
	assert.Equal(t, "User", d.QueryParams["role"])
	assert.Equal(t, driver.SaveEpisodePartQuery, d.QueryExecuted)
}

func TestAddSocialContact(t *testing.T) {
	d := &MockDriver{MockResult: result([]string{"id"}, []interface{}{"uuid-1"})}
	s := newTestStore(d)

	c := &model.SocialContact{Session: "s", Name: "Ravi", AccountEmail: "a@example.com", Relation: "Best Friend"}
	require.NoError(t, s.AddSocialContact(context.Background(), c))

	assert.Contains(t, d.QueryExecuted, "`is_best_friend`")
	assert.Equal(t, "a@example.com", d.QueryParams["email"])
	assert.Equal(t, "uuid-1", c.ID)
}

func TestSocialLinkExists(t *testing.T) {
	d := &MockDriver{MockResult: countResult(2)}
	s := newTestStore(d)

	ok, err := s.SocialLinkExists(context.Background(), "s", "a@example.com", "Ravi")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Ravi", d.QueryParams["name"])
}
