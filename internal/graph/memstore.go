package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agenthands/loubot/internal/core/model"
)

type attributeLink struct {
	Person string
	Edge   model.AttributeEdge
	Attr   model.Attribute
}

type socialLink struct {
	Email   string
	Label   string
	Contact model.SocialContact
}

// MemStore is a mutex-guarded Store kept entirely in process memory. It
// mirrors the Neo4j semantics: persons are upserted, attributes are always
// new, merged edges are unique and created edges are not.
type MemStore struct {
	mu            sync.RWMutex
	people        map[string][]model.Person
	attributes    map[string][]attributeLink
	relationships map[string][]model.Relationship
	episodes      map[string]*model.SessionHistory
	parts         map[string][]model.EpisodePart
	social        map[string][]socialLink
	pingErr       error

	UUIDGenerator func() string
	Now           func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		people:        make(map[string][]model.Person),
		attributes:    make(map[string][]attributeLink),
		relationships: make(map[string][]model.Relationship),
		episodes:      make(map[string]*model.SessionHistory),
		parts:         make(map[string][]model.EpisodePart),
		social:        make(map[string][]socialLink),
		UUIDGenerator: uuid.NewString,
		Now:           time.Now,
	}
}

// SetUnavailable makes Ping fail with err until called again with nil.
func (m *MemStore) SetUnavailable(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
}

func (m *MemStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.pingErr != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, m.pingErr)
	}
	return nil
}

func (m *MemStore) UpsertPerson(ctx context.Context, session, name string) (*model.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.findPerson(session, name); ok {
		return &p, nil
	}
	p := model.Person{
		ID:        m.UUIDGenerator(),
		Session:   session,
		FullName:  name,
		CreatedAt: m.Now().UTC(),
	}
	m.people[session] = append(m.people[session], p)
	return &p, nil
}

func (m *MemStore) findPerson(session, name string) (model.Person, bool) {
	for _, p := range m.people[session] {
		if p.FullName == name {
			return p, true
		}
	}
	return model.Person{}, false
}

func (m *MemStore) AddAttribute(ctx context.Context, session, name, value string, edge model.AttributeEdge) (*model.Attribute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.findPerson(session, name); !ok {
		return nil, fmt.Errorf("person %q not found in session", name)
	}
	attr := model.Attribute{
		ID:        m.UUIDGenerator(),
		Session:   session,
		Value:     value,
		CreatedAt: m.Now().UTC(),
	}
	m.attributes[session] = append(m.attributes[session], attributeLink{Person: name, Edge: edge, Attr: attr})
	return &attr, nil
}

func (m *MemStore) MergeRelationship(ctx context.Context, rel model.Relationship) error {
	return m.writeRelationship(rel, true)
}

func (m *MemStore) CreateRelationship(ctx context.Context, rel model.Relationship) error {
	return m.writeRelationship(rel, false)
}

func (m *MemStore) writeRelationship(rel model.Relationship, merge bool) error {
	label, err := SanitizeLabel(rel.Relation)
	if err != nil {
		return err
	}
	rel.Relation = label

	m.mu.Lock()
	defer m.mu.Unlock()

	_, okSubject := m.findPerson(rel.Session, rel.Subject)
	_, okObject := m.findPerson(rel.Session, rel.Object)
	if !okSubject || !okObject {
		return fmt.Errorf("%s edge %q -> %q: endpoints not found", label, rel.Subject, rel.Object)
	}
	if merge && m.countEdges(rel.Session, rel.Subject, label, rel.Object) > 0 {
		return nil
	}
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = m.Now().UTC()
	}
	m.relationships[rel.Session] = append(m.relationships[rel.Session], rel)
	return nil
}

func (m *MemStore) countEdges(session, subject, relation, object string) int {
	n := 0
	for _, r := range m.relationships[session] {
		if r.Subject == subject && r.Relation == relation && r.Object == object {
			n++
		}
	}
	return n
}

func (m *MemStore) RelationshipExists(ctx context.Context, session, subject, relation, object string) (bool, error) {
	label, err := SanitizeLabel(relation)
	if err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countEdges(session, subject, label, object) > 0, nil
}

func (m *MemStore) RelatedPeople(ctx context.Context, session, name, relation string) ([]model.RelatedPerson, error) {
	label, err := SanitizeLabel(relation)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[model.RelatedPerson]bool)
	var people []model.RelatedPerson
	add := func(rp model.RelatedPerson) {
		if !seen[rp] {
			seen[rp] = true
			people = append(people, rp)
		}
	}
	for _, r := range m.relationships[session] {
		if r.Relation == label && r.Object == name {
			add(model.RelatedPerson{Name: r.Subject, Direction: model.Incoming, Inferred: r.Inferred})
		}
	}
	for _, r := range m.relationships[session] {
		if r.Relation == label && r.Subject == name {
			add(model.RelatedPerson{Name: r.Object, Direction: model.Outgoing, Inferred: r.Inferred})
		}
	}
	return people, nil
}

func (m *MemStore) People(ctx context.Context, session string) ([]model.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Person(nil), m.people[session]...), nil
}

func (m *MemStore) Relationships(ctx context.Context, session string) ([]model.Relationship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Relationship(nil), m.relationships[session]...), nil
}

// Attributes lists the attribute values attached to name, in creation order.
func (m *MemStore) Attributes(session, name string) []model.Attribute {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var attrs []model.Attribute
	for _, a := range m.attributes[session] {
		if a.Person == name {
			attrs = append(attrs, a.Attr)
		}
	}
	return attrs
}

func (m *MemStore) AttributeCount(session string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.attributes[session])
}

// EdgeCount counts subject -relation-> object edges, duplicates included.
func (m *MemStore) EdgeCount(session, subject, relation, object string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countEdges(session, subject, relation, object)
}

func episodeKey(session, name string) string {
	return session + "\x00" + name
}

func (m *MemStore) GetOrCreateEpisode(ctx context.Context, session, name string, start time.Time, sentiment model.Sentiment) (*model.SessionHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := episodeKey(session, name)
	h, ok := m.episodes[key]
	if !ok {
		h = &model.SessionHistory{
			Session:          session,
			Name:             name,
			StartSession:     start.UTC(),
			OverallSentiment: sentiment,
			MemoryList:       []string{},
		}
		m.episodes[key] = h
	}
	out := *h
	out.MemoryList = append([]string(nil), h.MemoryList...)
	return &out, nil
}

func (m *MemStore) SaveEpisode(ctx context.Context, h *model.SessionHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.episodes[episodeKey(h.Session, h.Name)]
	if !ok {
		return fmt.Errorf("episode %q not found", h.Name)
	}
	stored.OverallSentiment = h.OverallSentiment
	stored.MemoryList = append([]string(nil), h.MemoryList...)
	return nil
}

func (m *MemStore) AddEpisodePart(ctx context.Context, part *model.EpisodePart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := episodeKey(part.Session, part.Episode)
	if _, ok := m.episodes[key]; !ok {
		return fmt.Errorf("episode %q not found", part.Episode)
	}
	if part.ID == "" {
		part.ID = m.UUIDGenerator()
	}
	if part.CreatedAt.IsZero() {
		part.CreatedAt = m.Now().UTC()
	}
	m.parts[key] = append(m.parts[key], *part)
	return nil
}

func (m *MemStore) EpisodeParts(ctx context.Context, session, episode string) ([]model.EpisodePart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.EpisodePart(nil), m.parts[episodeKey(session, episode)]...), nil
}

func (m *MemStore) AddSocialContact(ctx context.Context, c *model.SocialContact) error {
	label, err := SanitizeLabel(socialLabel(c.Relation))
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if c.ID == "" {
		c.ID = m.UUIDGenerator()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = m.Now().UTC()
	}
	m.social[c.Session] = append(m.social[c.Session], socialLink{Email: c.AccountEmail, Label: label, Contact: *c})
	return nil
}

func (m *MemStore) SocialLinkExists(ctx context.Context, session, accountEmail, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.social[session] {
		if l.Email == accountEmail && l.Contact.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// SocialLabels lists the edge types linking accountEmail to its contacts.
func (m *MemStore) SocialLabels(session, accountEmail string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var labels []string
	for _, l := range m.social[session] {
		if l.Email == accountEmail {
			labels = append(labels, l.Label)
		}
	}
	return labels
}
