package logic

import (
	"errors"
	"regexp"
	"strings"
)

// ErrUnsupportedRule is returned when a rule head still has more than one
// free variable after the subject has been bound.
var ErrUnsupportedRule = errors.New("unsupported rule: more than one free variable")

var (
	mainRelationRe = regexp.MustCompile(`^\s*([\w\s]+)\s*\(.*\)`)
	bindableRe     = regexp.MustCompile(`\b[XY]\b`)
	variableRe     = regexp.MustCompile(`\b[A-Z_][A-Za-z0-9_]*\b`)
	quotedRe       = regexp.MustCompile(`'(?:[^'\\]|\\.)*'`)
	plainAtomRe    = regexp.MustCompile(`^[a-z][A-Za-z0-9_]*$`)
)

// ExtractPredicate returns the text before the first "(".
func ExtractPredicate(fact string) (string, bool) {
	fact = strings.TrimSpace(fact)
	idx := strings.Index(fact, "(")
	if idx == -1 {
		return "", false
	}
	return strings.TrimSpace(fact[:idx]), true
}

func argumentSpan(fact string) (string, bool) {
	start := strings.Index(fact, "(")
	end := strings.LastIndex(fact, ")")
	if start == -1 || end == -1 || start >= end {
		return "", false
	}
	args := strings.TrimSpace(fact[start+1 : end])
	return args, args != ""
}

// CountArity counts the argument separators inside the outermost parentheses,
// so a unary fact has arity 0 and a binary fact arity 1. Malformed or empty
// parentheses also report 0; use ExtractArguments to tell the two apart.
func CountArity(fact string) int {
	args, ok := argumentSpan(fact)
	if !ok {
		return 0
	}
	return strings.Count(args, ",")
}

// ExtractArguments returns the trimmed arguments joined by ", ", or "" when
// the fact has no argument list.
func ExtractArguments(fact string) string {
	args, ok := argumentSpan(fact)
	if !ok {
		return ""
	}
	return strings.Join(SplitArguments(args), ", ")
}

func SplitArguments(args string) []string {
	if strings.TrimSpace(args) == "" {
		return nil
	}
	parts := strings.Split(args, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// ExtractRelationFromRule returns the rule head, the text before ":-".
func ExtractRelationFromRule(rule string) string {
	head, _, _ := strings.Cut(rule, implication)
	return strings.TrimSpace(head)
}

// ExtractMainRelationName returns the identifier preceding "(" in expr.
func ExtractMainRelationName(expr string) (string, bool) {
	m := mainRelationRe.FindStringSubmatch(expr)
	if m == nil {
		return "", false
	}
	name := strings.TrimSpace(m[1])
	return name, name != ""
}

// SubstituteVariable binds X to name and renames Y to X in a single pass, so
// the result has at most one variable left for the knowledge base to solve.
func SubstituteVariable(rule, name string) string {
	return bindableRe.ReplaceAllStringFunc(rule, func(v string) string {
		if v == "X" {
			return name
		}
		return "X"
	})
}

// FreeVariables lists the distinct variables of expr in order of appearance,
// ignoring quoted atoms.
func FreeVariables(expr string) []string {
	stripped := quotedRe.ReplaceAllString(expr, "''")
	seen := make(map[string]bool)
	var vars []string
	for _, v := range variableRe.FindAllString(stripped, -1) {
		if v == "_" || seen[v] {
			continue
		}
		seen[v] = true
		vars = append(vars, v)
	}
	return vars
}

// BindSubject substitutes name into a rule head and checks that at most the
// variable X remains.
func BindSubject(head, name string) (string, error) {
	bound := SubstituteVariable(head, QuoteAtom(name))
	vars := FreeVariables(bound)
	if len(vars) > 1 || (len(vars) == 1 && vars[0] != "X") {
		return "", ErrUnsupportedRule
	}
	return bound, nil
}

// QuoteAtom renders name as a Prolog atom, quoting it unless it is already a
// plain lower-case atom.
func QuoteAtom(name string) string {
	if plainAtomRe.MatchString(name) || (len(name) >= 2 && strings.HasPrefix(name, "'") && strings.HasSuffix(name, "'")) {
		return name
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(name)
	return "'" + escaped + "'"
}

// Unquote returns the text of an atom, removing surrounding single quotes
// and their escapes. Unquoted input is returned trimmed.
func Unquote(atom string) string {
	atom = strings.TrimSpace(atom)
	if len(atom) < 2 || !strings.HasPrefix(atom, "'") || !strings.HasSuffix(atom, "'") {
		return atom
	}
	return strings.NewReplacer(`\\`, `\`, `\'`, `'`, `''`, `'`).Replace(atom[1 : len(atom)-1])
}
