// Package logic reads the Prolog-like upload notation: it splits statements
// into facts and rules and pulls predicates, arguments and relation names out
// of them. Nothing here evaluates a rule; see package kb for that.
package logic

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	commentPrefix   = "%"
	implication     = ":-"
	terminator      = "."
	maxStatementLen = 1 << 20
)

// ReadStatements returns the non-empty, non-comment lines of r, trimmed.
func ReadStatements(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStatementLen)

	var statements []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}
		statements = append(statements, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read statements: %w", err)
	}
	return statements, nil
}

// Classify splits statements into facts and rules, preserving input order.
// The trailing terminator is stripped; anything containing ":-" is a rule.
func Classify(statements []string) (facts, rules []string) {
	for _, s := range statements {
		s = strings.TrimSpace(s)
		if strings.HasSuffix(s, terminator) {
			s = strings.TrimSpace(strings.TrimSuffix(s, terminator))
		}
		switch {
		case s == "":
			continue
		case strings.Contains(s, implication):
			rules = append(rules, s)
		default:
			facts = append(facts, s)
		}
	}
	return facts, rules
}

// Program renders classified statements back into consultable clause text.
func Program(facts, rules []string) string {
	var b strings.Builder
	for _, s := range facts {
		b.WriteString(s)
		b.WriteString(".\n")
	}
	for _, s := range rules {
		b.WriteString(s)
		b.WriteString(".\n")
	}
	return b.String()
}
