package model

import "time"

type Sentiment string

const (
	Positive Sentiment = "positive"
	Negative Sentiment = "negative"
	Neutral  Sentiment = "neutral"
)

type Role string

const (
	RoleUser Role = "User"
	RoleBot  Role = "Bot"
)

// SessionHistory is one calendar day of a session's chat turns.
type SessionHistory struct {
	Session          string    `json:"uid"`
	Name             string    `json:"name"`
	StartSession     time.Time `json:"start_session"`
	OverallSentiment Sentiment `json:"overall_sentiment"`
	MemoryList       []string  `json:"memory_list"`
}

type EpisodePart struct {
	ID        string    `json:"id"`
	Session   string    `json:"uid"`
	Episode   string    `json:"episode"`
	Role      Role      `json:"name"`
	Response  string    `json:"response"`
	Sentiment Sentiment `json:"sentiments"`
	CreatedAt time.Time `json:"created_at"`
}
