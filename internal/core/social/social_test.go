package social

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/loubot/internal/graph"
)

const (
	session = "alice@example.com"
	email   = "alice@example.com"
)

type fakeHistory struct {
	line string
	ok   bool
	err  error
}

func (f *fakeHistory) LastBotResponse(ctx context.Context, session string) (string, bool, error) {
	return f.line, f.ok, f.err
}

func TestParseMention(t *testing.T) {
	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"Do you know Ravi?", "Ravi", true},
		{"Do you know  Mary Ann ? I think you do", "Mary Ann", true},
		{"Do you know Ravi", "Ravi", true},
		{"Hello there", "", false},
		{"Do you know ?", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseMention(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestRecordMention(t *testing.T) {
	store := graph.NewMemStore()
	svc := NewService(store, &fakeHistory{line: "Do you know Ravi?", ok: true}, nil)
	ctx := context.Background()

	c, created, err := svc.RecordMention(ctx, session, email, "Friend")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Ravi", c.Name)
	assert.Equal(t, "friend", c.Relation)
	assert.Equal(t, []string{"is_friend"}, store.SocialLabels(session, email))

	_, created, err = svc.RecordMention(ctx, session, email, "friend")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, store.SocialLabels(session, email), 1)
}

func TestRecordMentionWithoutQuestion(t *testing.T) {
	svc := NewService(graph.NewMemStore(), &fakeHistory{line: "Nice weather", ok: true}, nil)
	_, _, err := svc.RecordMention(context.Background(), session, email, "friend")
	assert.ErrorIs(t, err, ErrNoMention)

	svc = NewService(graph.NewMemStore(), &fakeHistory{}, nil)
	_, _, err = svc.RecordMention(context.Background(), session, email, "friend")
	assert.ErrorIs(t, err, ErrNoMention)

	boom := errors.New("store down")
	svc = NewService(graph.NewMemStore(), &fakeHistory{err: boom}, nil)
	_, _, err = svc.RecordMention(context.Background(), session, email, "friend")
	assert.ErrorIs(t, err, boom)
}

func TestQuestion(t *testing.T) {
	store := graph.NewMemStore()
	svc := NewService(store, &fakeHistory{line: "Do you know Ravi?", ok: true}, nil)
	ctx := context.Background()

	q, ok, err := svc.Question(ctx, session, email, "Ravi")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Do you know Ravi?", q)

	_, _, err = svc.RecordMention(ctx, session, email, "cousin")
	require.NoError(t, err)

	_, ok, err = svc.Question(ctx, session, email, "Ravi")
	require.NoError(t, err)
	assert.False(t, ok)
}
