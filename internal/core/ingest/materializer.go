package ingest

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/agenthands/loubot/internal/core/kb"
	"github.com/agenthands/loubot/internal/core/logic"
	"github.com/agenthands/loubot/internal/core/model"
	"github.com/agenthands/loubot/internal/graph"
)

// Querier solves a bound rule head. *kb.KnowledgeBase satisfies it.
type Querier interface {
	Query(ctx context.Context, expr string) []kb.Binding
}

// Materializer writes classified facts into the graph and adds the edges
// that rules infer from them. Failures on a single fact or inference are
// logged and skipped.
type Materializer struct {
	store  graph.KnowledgeStore
	logger *zap.Logger
}

func NewMaterializer(store graph.KnowledgeStore, logger *zap.Logger) *Materializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Materializer{store: store, logger: logger.Named("materializer")}
}

type run struct {
	session string
	state   State
	names   []string
	seen    map[string]bool
	summary model.IngestSummary
}

func (r *run) recordName(name string) {
	if r.seen[name] {
		return
	}
	r.seen[name] = true
	r.names = append(r.names, name)
}

// Materialize runs MATERIALIZING_FACTS, MATERIALIZING_RULES and INFERRING
// for one session. The knowledge base must already hold facts and rules.
func (m *Materializer) Materialize(ctx context.Context, session string, q Querier, facts, rules []string) model.IngestSummary {
	r := &run{session: session, seen: make(map[string]bool)}

	r.state = MaterializingFacts
	m.materializeFacts(ctx, r, facts)

	r.state = MaterializingRules
	heads := m.ruleHeads(rules)
	r.summary.RuleCount = len(rules)

	r.state = Inferring
	for _, inf := range m.infer(ctx, r, q, heads) {
		m.materializeInference(ctx, r, inf)
	}

	r.state = Done
	m.logger.Info("materialized knowledge",
		zap.String("session", session),
		zap.Int("facts", r.summary.FactsProcessed),
		zap.Int("direct", r.summary.DirectRelationshipsProcessed),
		zap.Int("inferred", r.summary.InferredRelationshipsProcessed),
		zap.Int("rules", r.summary.RuleCount))
	return r.summary
}

func (m *Materializer) materializeFacts(ctx context.Context, r *run, facts []string) {
	ctx, span := tracer.Start(ctx, "ingest.materializeFacts")
	defer span.End()
	span.SetAttributes(attribute.Int("facts", len(facts)))

	for _, fact := range facts {
		if err := m.materializeFact(ctx, r, fact); err != nil {
			m.logger.Warn("skipping fact",
				zap.String("session", r.session),
				zap.Stringer("state", r.state),
				zap.String("fact", fact),
				zap.Error(err))
		}
	}
}

func (m *Materializer) materializeFact(ctx context.Context, r *run, fact string) error {
	predicate, ok := logic.ExtractPredicate(fact)
	if !ok || predicate == "" {
		m.logger.Debug("fact has no argument list", zap.String("fact", fact))
		return nil
	}
	args := logic.SplitArguments(logic.ExtractArguments(fact))
	for i := range args {
		args[i] = logic.Unquote(args[i])
	}

	switch {
	case len(args) == 0 || args[0] == "":
		return nil

	case logic.CountArity(fact) == 0:
		name := args[0]
		if _, err := m.store.UpsertPerson(ctx, r.session, name); err != nil {
			return err
		}
		if _, err := m.store.AddAttribute(ctx, r.session, name, predicate, model.FactAttribute); err != nil {
			return err
		}
		r.recordName(name)
		r.summary.FactsProcessed++
		return nil

	default:
		subject, object := args[0], args[1]
		if subject == "" || object == "" {
			return fmt.Errorf("malformed fact %q", fact)
		}
		if err := m.relate(ctx, r.session, subject, predicate, object); err != nil {
			return err
		}
		r.summary.DirectRelationshipsProcessed++

		for _, value := range args[2:] {
			if value == "" {
				continue
			}
			if _, err := m.store.AddAttribute(ctx, r.session, object, value, model.HasAttribute); err != nil {
				return err
			}
		}
		return nil
	}
}

func (m *Materializer) relate(ctx context.Context, session, subject, relation, object string) error {
	label, err := graph.SanitizeLabel(relation)
	if err != nil {
		return err
	}
	if _, err := m.store.UpsertPerson(ctx, session, subject); err != nil {
		return err
	}
	if _, err := m.store.UpsertPerson(ctx, session, object); err != nil {
		return err
	}
	return m.store.MergeRelationship(ctx, model.Relationship{
		Session:  session,
		Subject:  subject,
		Relation: label,
		Object:   object,
	})
}

// ruleHeads returns the distinct rule heads in upload order.
func (m *Materializer) ruleHeads(rules []string) []string {
	seen := make(map[string]bool)
	var heads []string
	for _, rule := range rules {
		head := logic.ExtractRelationFromRule(rule)
		if head == "" || seen[head] {
			continue
		}
		seen[head] = true
		heads = append(heads, head)
	}
	return heads
}

func (m *Materializer) infer(ctx context.Context, r *run, q Querier, heads []string) []model.Inference {
	ctx, span := tracer.Start(ctx, "ingest.infer")
	defer span.End()
	span.SetAttributes(attribute.Int("names", len(r.names)), attribute.Int("rules", len(heads)))

	var inferences []model.Inference
	for _, name := range r.names {
		for _, head := range heads {
			relation, ok := logic.ExtractMainRelationName(head)
			if !ok {
				continue
			}
			query, err := logic.BindSubject(head, name)
			if err != nil {
				m.logger.Warn("skipping rule",
					zap.String("session", r.session),
					zap.String("rule", head),
					zap.Error(err))
				continue
			}
			if len(logic.FreeVariables(query)) == 0 {
				continue
			}

			objects := kb.Names(q.Query(ctx, query))
			if len(objects) == 0 {
				m.logger.Debug("no inference",
					zap.String("name", name),
					zap.String("query", query))
				continue
			}
			inferences = append(inferences, model.Inference{
				Subject:  name,
				Relation: relation,
				Objects:  objects,
			})
		}
	}
	return inferences
}

func (m *Materializer) materializeInference(ctx context.Context, r *run, inf model.Inference) {
	label, err := graph.SanitizeLabel(inf.Relation)
	if err != nil {
		m.logger.Warn("skipping inference", zap.String("relation", inf.Relation), zap.Error(err))
		return
	}

	for _, object := range inf.Objects {
		object = logic.Unquote(object)
		if object == "" || object == inf.Subject {
			continue
		}
		exists, err := m.store.RelationshipExists(ctx, r.session, inf.Subject, label, object)
		if err != nil {
			m.logger.Warn("failed to check inferred edge", zap.String("relation", label), zap.Error(err))
			continue
		}
		if exists {
			continue
		}

		if _, err := m.store.UpsertPerson(ctx, r.session, object); err != nil {
			m.logger.Warn("failed to upsert inferred person", zap.String("name", object), zap.Error(err))
			continue
		}
		err = m.store.CreateRelationship(ctx, model.Relationship{
			Session:  r.session,
			Subject:  inf.Subject,
			Relation: label,
			Object:   object,
			Inferred: true,
		})
		if err != nil {
			m.logger.Warn("failed to create inferred edge",
				zap.String("subject", inf.Subject),
				zap.String("relation", label),
				zap.String("object", object),
				zap.Error(err))
			continue
		}
		r.summary.InferredRelationshipsProcessed++
	}
}
