package episodic

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/agenthands/loubot/internal/core/model"
)

const (
	episodeDateLayout = "2006-01-02"
	lineTimeLayout    = "2006-01-02 15:04:05"
)

var linePrefixRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} - (User|Bot): `)

// EpisodeName names the episode holding turns from t's calendar day.
func EpisodeName(t time.Time) string {
	return "Episode - " + t.Format(episodeDateLayout)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func FormatLine(t time.Time, role model.Role, text string) string {
	return fmt.Sprintf("%s - %s: %s", t.Format(lineTimeLayout), role, text)
}

// StripPrefixes removes every "<timestamp> - <Role>: " marker from a log.
func StripPrefixes(log string) string {
	return linePrefixRe.ReplaceAllString(log, "")
}

// LastBotLine returns the text of the most recent Bot line in a memory log.
func LastBotLine(lines []string) (string, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		loc := linePrefixRe.FindStringSubmatchIndex(lines[i])
		if loc == nil || loc[0] != 0 {
			continue
		}
		if lines[i][loc[2]:loc[3]] == string(model.RoleBot) {
			return strings.TrimSpace(lines[i][loc[1]:]), true
		}
	}
	return "", false
}
