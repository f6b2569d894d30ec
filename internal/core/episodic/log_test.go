package episodic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/agenthands/loubot/internal/core/model"
)

func TestEpisodeName(t *testing.T) {
	at := time.Date(2024, 5, 1, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, "Episode - 2024-05-01", EpisodeName(at))
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), startOfDay(at))
}

func TestFormatAndStrip(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 5, 3, 0, time.UTC)
	user := FormatLine(at, model.RoleUser, "who is mary's parent?")
	bot := FormatLine(at, model.RoleBot, "John")

	assert.Equal(t, "2024-05-01 09:05:03 - User: who is mary's parent?", user)
	assert.Equal(t, "who is mary's parent?\nJohn", StripPrefixes(user+"\n"+bot))
	assert.Equal(t, "no prefix here", StripPrefixes("no prefix here"))
}

func TestLastBotLine(t *testing.T) {
	lines := []string{
		"2024-05-01 09:00:00 - User: hi",
		"2024-05-01 09:00:00 - Bot: Do you know Ravi?",
		"2024-05-01 09:00:10 - User: yes",
	}
	got, ok := LastBotLine(lines)
	assert.True(t, ok)
	assert.Equal(t, "Do you know Ravi?", got)

	_, ok = LastBotLine(lines[:1])
	assert.False(t, ok)
	_, ok = LastBotLine(nil)
	assert.False(t, ok)
}
