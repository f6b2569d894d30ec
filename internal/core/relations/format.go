package relations

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NoKnowledge is shown when a relation lookup finds nobody.
const NoKnowledge = "No knowledge Found in knowledgebase according to your Query."

// FormatNames renders names as an English list with an Oxford comma.
func FormatNames(names []string) string {
	switch len(names) {
	case 0:
		return NoKnowledge
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	}
}

// A Caser keeps state, so each call builds its own.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// DisplayName title-cases a stored name for display.
func DisplayName(name string) string {
	return titleCase(name)
}

// DisplayRelation turns an edge type such as "best_friend" into "Best Friend".
func DisplayRelation(relation string) string {
	return titleCase(strings.ReplaceAll(relation, "_", " "))
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	r := []rune(lower)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
