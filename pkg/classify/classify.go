// Package classify provides the single building block the syslog facade
// (and anything else that wants the same shape of rule) is built from: a
// compiled regular expression paired with a match result and a no-match
// result, both plain integers whose meaning is entirely up to the caller.
package classify

import (
	"errors"
	"regexp"

	"github.com/gregbanks/novaprova/pkg/utils"
)

// ErrRegexCompile indicates a rule's pattern was rejected by regexp.Compile.
var ErrRegexCompile = errors.New("classify: regex compile failed")

// Rule classifies a piece of text by regular expression: Classify returns
// Match if re finds anything in the text, NoMatch otherwise. The two
// results are opaque to Rule — syslogfacade uses small disposition
// constants, but any comparable-by-caller integer works.
type Rule struct {
	Pattern string
	Match   int
	NoMatch int

	re *regexp.Regexp
}

// NewRule compiles pattern and returns a Rule that reports match on hit,
// noMatch otherwise.
func NewRule(pattern string, match, noMatch int) (Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, utils.MakeError(ErrRegexCompile, "pattern %q: %v", pattern, err)
	}
	return Rule{Pattern: pattern, Match: match, NoMatch: noMatch, re: re}, nil
}

// Classify returns r.Match if the rule's pattern is found anywhere in text,
// r.NoMatch otherwise.
func (r Rule) Classify(text string) int {
	if r.re.MatchString(text) {
		return r.Match
	}
	return r.NoMatch
}
