package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/loubot/internal/core/model"
	"github.com/agenthands/loubot/internal/driver"
)

type Neo4jStore struct {
	Driver        driver.GraphDriver
	UUIDGenerator func() string
	Now           func() time.Time
}

func NewNeo4jStore(d driver.GraphDriver) *Neo4jStore {
	return &Neo4jStore{
		Driver:        d,
		UUIDGenerator: uuid.NewString,
		Now:           time.Now,
	}
}

func (s *Neo4jStore) Ping(ctx context.Context) error {
	if _, err := s.Driver.ExecuteQuery(ctx, driver.PingQuery, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Neo4jStore) UpsertPerson(ctx context.Context, session, name string) (*model.Person, error) {
	params := map[string]interface{}{
		"session":    session,
		"name":       name,
		"id":         s.UUIDGenerator(),
		"created_at": s.Now().UTC(),
	}
	res, err := s.Driver.ExecuteQuery(ctx, driver.UpsertPersonQuery, params)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert person %q: %w", name, err)
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("upsert person %q returned no rows", name)
	}
	p := recordToPerson(res.Records[0])
	p.Session = session
	return &p, nil
}

func (s *Neo4jStore) AddAttribute(ctx context.Context, session, name, value string, edge model.AttributeEdge) (*model.Attribute, error) {
	attr := &model.Attribute{
		ID:        s.UUIDGenerator(),
		Session:   session,
		Value:     value,
		CreatedAt: s.Now().UTC(),
	}
	params := map[string]interface{}{
		"session":    session,
		"name":       name,
		"id":         attr.ID,
		"attribute":  value,
		"created_at": attr.CreatedAt,
	}
	res, err := s.Driver.ExecuteQuery(ctx, driver.CreateAttributeQuery(string(edge)), params)
	if err != nil {
		return nil, fmt.Errorf("failed to add attribute %q to %q: %w", value, name, err)
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("person %q not found in session", name)
	}
	return attr, nil
}

func (s *Neo4jStore) MergeRelationship(ctx context.Context, rel model.Relationship) error {
	return s.writeRelationship(ctx, driver.MergeRelationshipQuery, rel)
}

func (s *Neo4jStore) CreateRelationship(ctx context.Context, rel model.Relationship) error {
	return s.writeRelationship(ctx, driver.CreateRelationshipQuery, rel)
}

func (s *Neo4jStore) writeRelationship(ctx context.Context, build func(string) string, rel model.Relationship) error {
	label, err := SanitizeLabel(rel.Relation)
	if err != nil {
		return err
	}
	createdAt := rel.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.Now().UTC()
	}
	params := map[string]interface{}{
		"session":    rel.Session,
		"subject":    rel.Subject,
		"object":     rel.Object,
		"inferred":   rel.Inferred,
		"created_at": createdAt,
	}
	res, err := s.Driver.ExecuteQuery(ctx, build(label), params)
	if err != nil {
		return fmt.Errorf("failed to write %s edge %q -> %q: %w", label, rel.Subject, rel.Object, err)
	}
	if countOf(res) == 0 {
		return fmt.Errorf("%s edge %q -> %q: endpoints not found", label, rel.Subject, rel.Object)
	}
	return nil
}

func (s *Neo4jStore) RelationshipExists(ctx context.Context, session, subject, relation, object string) (bool, error) {
	label, err := SanitizeLabel(relation)
	if err != nil {
		return false, err
	}
	params := map[string]interface{}{
		"session": session,
		"subject": subject,
		"object":  object,
	}
	res, err := s.Driver.ExecuteQuery(ctx, driver.RelationshipExistsQuery(label), params)
	if err != nil {
		return false, fmt.Errorf("failed to check %s edge: %w", label, err)
	}
	return countOf(res) > 0, nil
}

func (s *Neo4jStore) RelatedPeople(ctx context.Context, session, name, relation string) ([]model.RelatedPerson, error) {
	label, err := SanitizeLabel(relation)
	if err != nil {
		return nil, err
	}
	params := map[string]interface{}{
		"session": session,
		"name":    name,
	}
	res, err := s.Driver.ExecuteQuery(ctx, driver.RelatedPeopleQuery(label), params)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s relations of %q: %w", label, name, err)
	}

	people := make([]model.RelatedPerson, 0, len(res.Records))
	for _, rec := range res.Records {
		people = append(people, model.RelatedPerson{
			Name:      stringOf(rec, "name"),
			Direction: model.Direction(stringOf(rec, "direction")),
			Inferred:  boolOf(rec, "inferred"),
		})
	}
	return people, nil
}

func (s *Neo4jStore) People(ctx context.Context, session string) ([]model.Person, error) {
	res, err := s.Driver.ExecuteQuery(ctx, driver.GetSessionPeopleQuery, map[string]interface{}{"session": session})
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	people := make([]model.Person, 0, len(res.Records))
	for _, rec := range res.Records {
		p := recordToPerson(rec)
		p.Session = session
		people = append(people, p)
	}
	return people, nil
}

func (s *Neo4jStore) Relationships(ctx context.Context, session string) ([]model.Relationship, error) {
	res, err := s.Driver.ExecuteQuery(ctx, driver.GetSessionRelationshipsQuery, map[string]interface{}{"session": session})
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	rels := make([]model.Relationship, 0, len(res.Records))
	for _, rec := range res.Records {
		rels = append(rels, model.Relationship{
			Session:  session,
			Subject:  stringOf(rec, "source"),
			Relation: stringOf(rec, "relation"),
			Object:   stringOf(rec, "target"),
			Inferred: boolOf(rec, "inferred"),
		})
	}
	return rels, nil
}

func (s *Neo4jStore) GetOrCreateEpisode(ctx context.Context, session, name string, start time.Time, sentiment model.Sentiment) (*model.SessionHistory, error) {
	params := map[string]interface{}{
		"session":    session,
		"name":       name,
		"created_at": start.UTC(),
		"sentiment":  string(sentiment),
	}
	res, err := s.Driver.ExecuteQuery(ctx, driver.GetOrCreateEpisodeQuery, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get episode %q: %w", name, err)
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("episode %q returned no rows", name)
	}
	rec := res.Records[0]
	return &model.SessionHistory{
		Session:          session,
		Name:             stringOf(rec, "name"),
		StartSession:     timeOf(rec, "start_session"),
		OverallSentiment: model.Sentiment(stringOf(rec, "overall_sentiment")),
		MemoryList:       stringsOf(rec, "memory_list"),
	}, nil
}

func (s *Neo4jStore) SaveEpisode(ctx context.Context, h *model.SessionHistory) error {
	params := map[string]interface{}{
		"session":     h.Session,
		"name":        h.Name,
		"sentiment":   string(h.OverallSentiment),
		"memory_list": h.MemoryList,
	}
	res, err := s.Driver.ExecuteQuery(ctx, driver.SaveEpisodeQuery, params)
	if err != nil {
		return fmt.Errorf("failed to save episode %q: %w", h.Name, err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("episode %q not found", h.Name)
	}
	return nil
}

func (s *Neo4jStore) AddEpisodePart(ctx context.Context, part *model.EpisodePart) error {
	if part.ID == "" {
		part.ID = s.UUIDGenerator()
	}
	if part.CreatedAt.IsZero() {
		part.CreatedAt = s.Now().UTC()
	}
	params := map[string]interface{}{
		"id":         part.ID,
		"session":    part.Session,
		"episode":    part.Episode,
		"role":       string(part.Role),
		"response":   part.Response,
		"sentiment":  string(part.Sentiment),
		"created_at": part.CreatedAt,
	}
	res, err := s.Driver.ExecuteQuery(ctx, driver.SaveEpisodePartQuery, params)
	if err != nil {
		return fmt.Errorf("failed to save episode part: %w", err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("episode %q not found", part.Episode)
	}
	return nil
}

func (s *Neo4jStore) EpisodeParts(ctx context.Context, session, episode string) ([]model.EpisodePart, error) {
	params := map[string]interface{}{
		"session": session,
		"episode": episode,
	}
	res, err := s.Driver.ExecuteQuery(ctx, driver.GetEpisodePartsQuery, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list episode parts: %w", err)
	}
	parts := make([]model.EpisodePart, 0, len(res.Records))
	for _, rec := range res.Records {
		parts = append(parts, model.EpisodePart{
			ID:        stringOf(rec, "id"),
			Session:   session,
			Episode:   episode,
			Role:      model.Role(stringOf(rec, "role")),
			Response:  stringOf(rec, "response"),
			Sentiment: model.Sentiment(stringOf(rec, "sentiment")),
			CreatedAt: timeOf(rec, "created_at"),
		})
	}
	return parts, nil
}

func (s *Neo4jStore) AddSocialContact(ctx context.Context, c *model.SocialContact) error {
	label, err := SanitizeLabel(socialLabel(c.Relation))
	if err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = s.UUIDGenerator()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.Now().UTC()
	}
	params := map[string]interface{}{
		"id":         c.ID,
		"session":    c.Session,
		"name":       c.Name,
		"email":      c.AccountEmail,
		"created_at": c.CreatedAt,
	}
	if _, err := s.Driver.ExecuteQuery(ctx, driver.CreateSocialContactQuery(label), params); err != nil {
		return fmt.Errorf("failed to add social contact %q: %w", c.Name, err)
	}
	return nil
}

func (s *Neo4jStore) SocialLinkExists(ctx context.Context, session, accountEmail, name string) (bool, error) {
	params := map[string]interface{}{
		"session": session,
		"email":   accountEmail,
		"name":    name,
	}
	res, err := s.Driver.ExecuteQuery(ctx, driver.SocialLinkExistsQuery, params)
	if err != nil {
		return false, fmt.Errorf("failed to check social link: %w", err)
	}
	return countOf(res) > 0, nil
}

func recordToPerson(rec *neo4j.Record) model.Person {
	return model.Person{
		ID:        stringOf(rec, "id"),
		FullName:  stringOf(rec, "full_name"),
		CreatedAt: timeOf(rec, "created_at"),
	}
}

func countOf(res neo4j.EagerResult) int64 {
	if len(res.Records) == 0 {
		return 0
	}
	v, _ := res.Records[0].Get("count")
	n, _ := v.(int64)
	return n
}

func stringOf(rec *neo4j.Record, key string) string {
	v, _ := rec.Get(key)
	s, _ := v.(string)
	return s
}

func boolOf(rec *neo4j.Record, key string) bool {
	v, _ := rec.Get(key)
	b, _ := v.(bool)
	return b
}

func timeOf(rec *neo4j.Record, key string) time.Time {
	v, _ := rec.Get(key)
	switch t := v.(type) {
	case time.Time:
		return t
	case neo4j.LocalDateTime:
		return t.Time()
	}
	return time.Time{}
}

func stringsOf(rec *neo4j.Record, key string) []string {
	v, _ := rec.Get(key)
	items, _ := v.([]interface{})
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
