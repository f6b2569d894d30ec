package kb

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"github.com/ichiban/prolog"
	"github.com/ichiban/prolog/engine"
)

// operatorTable is written in canonical form so it parses before any
// operator exists.
const operatorTable = `
:-(op(1200, xfx, [:-, -->])).
:-(op(1200, fx, [:-, ?-])).
:-(op(1105, xfy, '|')).
:-(op(1100, xfy, ;)).
:-(op(1050, xfy, ->)).
:-(op(1000, xfy, ',')).
:-(op(900, fy, \+)).
:-(op(700, xfx, [=, \=])).
:-(op(700, xfx, [==, \==, @<, @=<, @>, @>=])).
:-(op(700, xfx, =..)).
:-(op(700, xfx, [is, =:=, =\=, <, =<, >, >=])).
:-(op(600, xfy, :)).
:-(op(500, yfx, [+, -, /\, \/])).
:-(op(400, yfx, [*, /, //, div, rem, mod, <<, >>])).
:-(op(200, xfx, **)).
:-(op(200, xfy, ^)).
:-(op(200, fy, [+, -, \])).
`

// controlPrelude defines the control constructs that are not compiled
// natively by the engine.
const controlPrelude = `
true.
fail :- \+true.
false :- fail.
P, Q :- call((P, Q)).
If -> Then; _ :- If, !, Then.
_ -> _; Else :- !, Else.
P; Q :- call((P; Q)).
If -> Then :- If, !, Then.
X \= Y :- \+(X = Y).
X == Y :- compare(=, X, Y).
X \== Y :- \+(X == Y).
X @< Y :- compare(<, X, Y).
X @> Y :- compare(>, X, Y).
X @=< Y :- compare(=, X, Y).
X @=< Y :- compare(<, X, Y).
X @>= Y :- compare(>, X, Y).
X @>= Y :- compare(=, X, Y).
once(P) :- P, !.
`

var (
	atomIf    = engine.NewAtom(":-")
	atomQuery = engine.NewAtom("?-")
)

// noFiles backs include/1 and ensure_loaded/1 with an empty file system.
type noFiles struct{}

func (noFiles) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// newInterpreter builds an interpreter that can only evaluate terms. Stream
// I/O, file loading, database updates and halt are not registered, so an
// uploaded program that calls them gets an existence error.
func newInterpreter(ctx context.Context) (*prolog.Interpreter, error) {
	p := new(prolog.Interpreter)
	p.FS = noFiles{}

	p.Register3(engine.NewAtom("op"), engine.Op)
	if err := p.ExecContext(ctx, operatorTable); err != nil {
		return nil, fmt.Errorf("operator table: %w", err)
	}
	p.Register3(engine.NewAtom("op"), func(_ *engine.VM, _, _, _ engine.Term, _ engine.Cont, _ *engine.Env) *engine.Promise {
		return engine.Bool(false)
	})

	// control
	p.Register1(engine.NewAtom("call"), engine.Call)
	p.Register2(engine.NewAtom("call"), engine.Call1)
	p.Register3(engine.NewAtom("call"), engine.Call2)
	p.Register4(engine.NewAtom("call"), engine.Call3)
	p.Register1(engine.NewAtom(`\+`), engine.Negate)
	p.Register3(engine.NewAtom("findall"), engine.FindAll)
	p.Register3(engine.NewAtom("bagof"), engine.BagOf)
	p.Register3(engine.NewAtom("setof"), engine.SetOf)

	// unification and comparison
	p.Register2(engine.NewAtom("="), engine.Unify)
	p.Register3(engine.NewAtom("compare"), engine.Compare)
	p.Register1(engine.NewAtom("var"), engine.TypeVar)
	p.Register1(engine.NewAtom("atom"), engine.TypeAtom)
	p.Register1(engine.NewAtom("integer"), engine.TypeInteger)
	p.Register1(engine.NewAtom("float"), engine.TypeFloat)
	p.Register1(engine.NewAtom("compound"), engine.TypeCompound)

	// term inspection
	p.Register3(engine.NewAtom("functor"), engine.Functor)
	p.Register3(engine.NewAtom("arg"), engine.Arg)
	p.Register2(engine.NewAtom("=.."), engine.Univ)
	p.Register2(engine.NewAtom("copy_term"), engine.CopyTerm)

	// arithmetic
	p.Register2(engine.NewAtom("is"), engine.Is)
	p.Register2(engine.NewAtom("=:="), engine.Equal)
	p.Register2(engine.NewAtom(`=\=`), engine.NotEqual)
	p.Register2(engine.NewAtom("<"), engine.LessThan)
	p.Register2(engine.NewAtom("=<"), engine.LessThanOrEqual)
	p.Register2(engine.NewAtom(">"), engine.GreaterThan)
	p.Register2(engine.NewAtom(">="), engine.GreaterThanOrEqual)
	p.Register3(engine.NewAtom("between"), engine.Between)
	p.Register2(engine.NewAtom("succ"), engine.Succ)

	// lists and atoms
	p.Register2(engine.NewAtom("length"), engine.Length)
	p.Register3(engine.NewAtom("append"), engine.Append)
	p.Register2(engine.NewAtom("atom_length"), engine.AtomLength)
	p.Register3(engine.NewAtom("atom_concat"), engine.AtomConcat)

	if err := p.ExecContext(ctx, controlPrelude); err != nil {
		return nil, fmt.Errorf("control prelude: %w", err)
	}
	return p, nil
}

// checkClauses parses program with the interpreter's operators and rejects
// directives, which would otherwise run while the program is consulted.
func checkClauses(p *prolog.Interpreter, program string) error {
	parser := engine.NewParser(&p.VM, strings.NewReader(program))
	for parser.More() {
		t, err := parser.Term()
		if err != nil {
			return err
		}
		c, ok := t.(engine.Compound)
		if !ok || c.Arity() != 1 {
			continue
		}
		if f := c.Functor(); f == atomIf || f == atomQuery {
			return fmt.Errorf("directive %s not allowed", f)
		}
	}
	return nil
}
