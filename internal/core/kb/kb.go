// Package kb owns the logic knowledge base that rules are evaluated against.
// Each session gets its own interpreter; see Registry.
package kb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ichiban/prolog"
	"github.com/ichiban/prolog/engine"
	"go.uber.org/zap"

	"github.com/agenthands/loubot/internal/core/logic"
)

// ErrSyntax wraps any failure to consult an uploaded program.
var ErrSyntax = errors.New("syntax error in knowledge base")

// SubjectVar is the variable a bound rule head is solved for.
const SubjectVar = "X"

// Binding maps variable names to the text of the term they were bound to.
type Binding map[string]string

type KnowledgeBase struct {
	mu           sync.Mutex
	interp       *prolog.Interpreter
	queryTimeout time.Duration
	logger       *zap.Logger
}

func New(queryTimeout time.Duration, logger *zap.Logger) *KnowledgeBase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KnowledgeBase{
		queryTimeout: queryTimeout,
		logger:       logger.Named("kb"),
	}
}

// Load replaces the knowledge base with facts and rules. Directives are
// rejected. A failed load leaves the previous contents in place.
func (k *KnowledgeBase) Load(ctx context.Context, facts, rules []string) error {
	if k.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.queryTimeout)
		defer cancel()
	}

	p, err := newInterpreter(ctx)
	if err != nil {
		return fmt.Errorf("init interpreter: %w", err)
	}

	program := logic.Program(facts, rules)
	if err := checkClauses(p, program); err != nil {
		return fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if err := p.ExecContext(ctx, program); err != nil {
		return fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	k.mu.Lock()
	k.interp = p
	k.mu.Unlock()

	k.logger.Debug("knowledge base loaded", zap.Int("facts", len(facts)), zap.Int("rules", len(rules)))
	return nil
}

func (k *KnowledgeBase) Loaded() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.interp != nil
}

// Query solves expr and returns one Binding per solution. Errors, including
// unknown procedures and timeouts, are logged and reported as no solutions.
func (k *KnowledgeBase) Query(ctx context.Context, expr string) []Binding {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.interp == nil {
		return nil
	}

	if k.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.queryTimeout)
		defer cancel()
	}

	query := strings.TrimSpace(expr)
	if !strings.HasSuffix(query, ".") {
		query += "."
	}

	sols, err := k.interp.QueryContext(ctx, query)
	if err != nil {
		k.logger.Warn("query failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	defer sols.Close()

	var bindings []Binding
	for sols.Next() {
		var s struct {
			X boundTerm
		}
		if err := sols.Scan(&s); err != nil {
			k.logger.Debug("skipping solution", zap.String("query", query), zap.Error(err))
			continue
		}
		b := Binding{}
		if s.X.bound {
			b[SubjectVar] = s.X.text
		}
		bindings = append(bindings, b)
	}
	if err := sols.Err(); err != nil {
		k.logger.Warn("query aborted", zap.String("query", query), zap.Error(err))
		return bindings
	}

	return bindings
}

// boundTerm receives one solution binding. Atoms keep their bare name; other
// terms are written in quoted form.
type boundTerm struct {
	text  string
	bound bool
}

func (b *boundTerm) Scan(vm *engine.VM, term engine.Term, env *engine.Env) error {
	switch t := env.Resolve(term).(type) {
	case engine.Variable:
		return nil
	case engine.Atom:
		b.text, b.bound = t.String(), true
		return nil
	default:
		var sb strings.Builder
		opts := engine.List(engine.NewAtom("quoted").Apply(engine.NewAtom("true")))
		if _, err := engine.WriteTerm(vm, engine.NewOutputTextStream(&sb), t, opts, engine.Success, env).Force(context.Background()); err != nil {
			return fmt.Errorf("write binding: %w", err)
		}
		b.text, b.bound = sb.String(), true
		return nil
	}
}

// Names collects the distinct values bound to SubjectVar, in solution order.
func Names(bindings []Binding) []string {
	seen := make(map[string]bool)
	var names []string
	for _, b := range bindings {
		name, ok := b[SubjectVar]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
