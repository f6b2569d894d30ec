// Package ingest turns an uploaded logic program into graph state: it loads
// the session's knowledge base, writes facts as people, attributes and
// relationships, then adds the edges its rules infer.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/agenthands/loubot/internal/collab"
	"github.com/agenthands/loubot/internal/core/kb"
	"github.com/agenthands/loubot/internal/core/logic"
	"github.com/agenthands/loubot/internal/core/model"
	"github.com/agenthands/loubot/internal/graph"
)

var tracer = otel.Tracer("github.com/agenthands/loubot/internal/core/ingest")

const StoreUnavailableMessage = "Prolog file processed successfully, but I cannot save to the knowledge graph right now due to database connection issues. Please ensure Neo4j is running and properly configured."

var responses = []string{
	"Successfully processed your Prolog file! I have analyzed the facts and rules, and created a knowledge graph with family relationships. You can now ask me questions about the relationships in your data.",
	"Prolog file processed successfully! I have extracted the facts and rules and built a knowledge graph. Feel free to ask me about the relationships between people in your data.",
	"Your Prolog file has been processed and the knowledge graph has been updated! I can now answer questions about the family relationships and logical rules you provided.",
	"File processing complete! I have analyzed your Prolog facts and rules, created person nodes and relationships in the knowledge graph. What would you like to know about the data?",
	"Successfully imported your Prolog knowledge base! The family tree and relationships have been processed and stored. You can now query the relationships.",
	"Prolog file imported successfully! I have created a knowledge graph from your facts and rules. Ask me about any relationships or family connections.",
	"Processing complete! Your Prolog file has been analyzed and the knowledge graph has been populated with the family relationships and logical rules.",
}

// Store is the part of graph.Store ingestion needs.
type Store interface {
	graph.KnowledgeStore
	Ping(ctx context.Context) error
}

type Result struct {
	Summary model.IngestSummary `json:"summary"`
	Message string              `json:"bot_response"`
	State   State               `json:"-"`
}

type Service struct {
	store        Store
	registry     *kb.Registry
	locker       Locker
	materializer *Materializer
	logger       *zap.Logger

	// Pick chooses a response phrasing; it returns an index below n.
	Pick func(n int) int
	// Notifier, when set, is told about every completed ingestion. Sessions
	// are keyed by account email, so the session is the recipient.
	Notifier collab.Notifier
}

func NewService(store Store, registry *kb.Registry, locker Locker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &Service{
		store:        store,
		registry:     registry,
		locker:       locker,
		materializer: NewMaterializer(store, logger),
		logger:       logger.Named("ingest"),
		Pick:         rand.Intn,
	}
}

// Ingest reads a logic program from r and materializes it for session.
//
// A malformed program returns kb.ErrSyntax and changes nothing. When the
// graph store cannot be reached the knowledge base is still replaced and
// the error wraps graph.ErrStoreUnavailable; Result.Message then carries the
// advisory for the user.
func (s *Service) Ingest(ctx context.Context, session string, r io.Reader) (*Result, error) {
	ctx, span := tracer.Start(ctx, "ingest.Ingest")
	defer span.End()
	span.SetAttributes(attribute.String("session", session))

	release, err := s.locker.Acquire(ctx, session)
	if err != nil {
		return nil, err
	}
	defer release()

	res := &Result{State: Parsing}

	statements, err := logic.ReadStatements(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}
	facts, rules := logic.Classify(statements)

	knowledge := s.registry.Get(session)
	if err := knowledge.Load(ctx, facts, rules); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "syntax error")
		s.logger.Info("rejected program", zap.String("session", session), zap.Error(err))
		return nil, err
	}

	if err := s.store.Ping(ctx); err != nil {
		span.RecordError(err)
		s.logger.Error("graph store unavailable", zap.String("session", session), zap.Error(err))
		res.Message = StoreUnavailableMessage
		if !errors.Is(err, graph.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %v", graph.ErrStoreUnavailable, err)
		}
		return res, err
	}

	res.Summary = s.materializer.Materialize(ctx, session, knowledge, facts, rules)
	res.State = Done
	res.Message = s.message(res.Summary)
	collab.Dispatch(s.Notifier, s.logger, session, "Knowledge Base Updated", res.Message)
	return res, nil
}

func (s *Service) message(sum model.IngestSummary) string {
	return fmt.Sprintf("%s Processed %d facts, %d direct relationships, and %d inferred relationships from %d rules.",
		responses[s.Pick(len(responses))],
		sum.FactsProcessed,
		sum.DirectRelationshipsProcessed,
		sum.InferredRelationshipsProcessed,
		sum.RuleCount)
}
