package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPredicate(t *testing.T) {
	p, ok := ExtractPredicate("  parent(john, mary)")
	assert.True(t, ok)
	assert.Equal(t, "parent", p)

	_, ok = ExtractPredicate("sunny")
	assert.False(t, ok)
}

func TestCountArity(t *testing.T) {
	tests := []struct {
		fact string
		want int
	}{
		{"male(john)", 0},
		{"parent(john, mary)", 1},
		{"lives(john, mary, lahore, karachi)", 3},
		{"empty()", 0},
		{"broken)(", 0},
		{"noparens", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CountArity(tt.fact), tt.fact)
	}
}

func TestExtractArguments(t *testing.T) {
	assert.Equal(t, "john", ExtractArguments("male( john )"))
	assert.Equal(t, "john, mary", ExtractArguments("parent(john,mary)"))
	assert.Equal(t, "", ExtractArguments("empty()"))
	assert.Equal(t, "", ExtractArguments("noparens"))
}

func TestExtractRelationFromRule(t *testing.T) {
	assert.Equal(t, "sibling(X, Y)", ExtractRelationFromRule("sibling(X, Y) :- parent(Z, X), parent(Z, Y)"))
}

func TestExtractMainRelationName(t *testing.T) {
	name, ok := ExtractMainRelationName("sibling(mary, X)")
	assert.True(t, ok)
	assert.Equal(t, "sibling", name)

	name, ok = ExtractMainRelationName("  grand_parent (X, Y)")
	assert.True(t, ok)
	assert.Equal(t, "grand_parent", name)

	_, ok = ExtractMainRelationName("no relation here")
	assert.False(t, ok)
}

func TestSubstituteVariable(t *testing.T) {
	assert.Equal(t, "sibling(mary, X)", SubstituteVariable("sibling(X, Y)", "mary"))
	// Word boundaries keep identifiers containing X or Y intact.
	assert.Equal(t, "rel(mary, Xavier, X)", SubstituteVariable("rel(X, Xavier, Y)", "mary"))
	// The bound name is never rescanned.
	assert.Equal(t, "rel('Y', X)", SubstituteVariable("rel(X, Y)", "'Y'"))
}

func TestFreeVariables(t *testing.T) {
	assert.Equal(t, []string{"X", "Z"}, FreeVariables("rel(X, Z, X, 'Quoted Name', _)"))
	assert.Empty(t, FreeVariables("parent(john, mary)"))
}

func TestBindSubject(t *testing.T) {
	q, err := BindSubject("sibling(X, Y)", "mary")
	require.NoError(t, err)
	assert.Equal(t, "sibling(mary, X)", q)

	q, err = BindSubject("sibling(X)", "mary")
	require.NoError(t, err)
	assert.Equal(t, "sibling(mary)", q)

	q, err = BindSubject("friend(X, Y)", "Mary Ann")
	require.NoError(t, err)
	assert.Equal(t, "friend('Mary Ann', X)", q)

	_, err = BindSubject("between(X, Y, Z)", "mary")
	assert.ErrorIs(t, err, ErrUnsupportedRule)
}

func TestQuoteAtom(t *testing.T) {
	assert.Equal(t, "john", QuoteAtom("john"))
	assert.Equal(t, "'John'", QuoteAtom("John"))
	assert.Equal(t, `'o\'brien'`, QuoteAtom("o'brien"))
	assert.Equal(t, "'already quoted'", QuoteAtom("'already quoted'"))
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "john", Unquote(" john "))
	assert.Equal(t, "Mary Ann", Unquote("'Mary Ann'"))
	assert.Equal(t, "o'brien", Unquote(`'o\'brien'`))
	assert.Equal(t, "o'brien", Unquote(`'o''brien'`))
	assert.Equal(t, "'", Unquote("'"))
	assert.Equal(t, "Mary Ann", Unquote(QuoteAtom("Mary Ann")))
}
