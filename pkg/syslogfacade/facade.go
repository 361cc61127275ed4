// Package syslogfacade is the Go translation of the intercept target that
// mocks syslog(3): it holds an ordered set of fail/ignore/match rules and,
// for every logged message, picks the rule whose disposition is most severe
// under UNKNOWN < IGNORE < COUNT < FAIL, the same resolution isyslog.c's
// find_slmatch performs.
package syslogfacade

import (
	"errors"
	"fmt"
	"log/syslog"
	"strings"
	"sync"

	"github.com/gregbanks/novaprova/pkg/classify"
	"github.com/gregbanks/novaprova/pkg/utils"
)

// ErrUnmatchedTag indicates Count was queried with a tag no registered rule
// carries.
var ErrUnmatchedTag = errors.New("syslogfacade: no rule carries this tag")

// Disposition is the resolved outcome of classifying one logged message,
// ordered UNKNOWN < IGNORE < COUNT < FAIL so the facade can pick the
// most severe match with a plain numeric comparison.
type Disposition int

const (
	Unknown Disposition = iota
	Ignore
	Count
	Fail
)

func (d Disposition) String() string {
	switch d {
	case Ignore:
		return "IGNORE"
	case Count:
		return "COUNT"
	case Fail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

type rule struct {
	disposition Disposition
	tag         int
	classifier  classify.Rule
	count       uint
}

// Facade is the ordered rule list a test installs before letting logged
// syslog calls run through it. Rules are evaluated in registration order on
// every call and there is no reset operation: tests are expected to run in
// freshly forked child processes that start with an empty Facade.
type Facade struct {
	mu    sync.Mutex
	rules []rule
}

// New returns an empty Facade.
func New() *Facade { return &Facade{} }

// Fail adds a rule that fails the test when pattern matches a logged
// message.
func (f *Facade) Fail(pattern string) error { return f.add(pattern, Fail, 0) }

// Ignore adds a rule that silently swallows a logged message matching
// pattern.
func (f *Facade) Ignore(pattern string) error { return f.add(pattern, Ignore, 0) }

// Match adds a rule that counts, under tag, a logged message matching
// pattern.
func (f *Facade) Match(pattern string, tag int) error { return f.add(pattern, Count, tag) }

func (f *Facade) add(pattern string, dis Disposition, tag int) error {
	// NoMatch result is irrelevant here: resolve picks the rule with the
	// highest disposition among only those that matched, so a
	// non-matching rule's "result" is never consulted.
	c, err := classify.NewRule(pattern, int(dis), int(Unknown))
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{disposition: dis, tag: tag, classifier: c})
	return nil
}

// Log composes the message the way isyslog.c's vlogmsg does ("<priority
// name>: <message>", trailing whitespace trimmed), resolves it against
// every registered rule, and returns the winning disposition plus the
// composed message. When the winner is Count, that rule's counter is
// incremented.
func (f *Facade) Log(priority syslog.Priority, format string, args ...any) (Disposition, string) {
	msg := composeMessage(priority, format, args...)

	f.mu.Lock()
	defer f.mu.Unlock()

	best := -1
	bestDis := Unknown
	for i := range f.rules {
		dis := Disposition(f.rules[i].classifier.Classify(msg))
		if dis == Unknown {
			continue
		}
		if best == -1 || dis > bestDis {
			best = i
			bestDis = dis
		}
	}

	if best == -1 {
		return Unknown, msg
	}
	if bestDis == Count {
		f.rules[best].count++
	}
	return bestDis, msg
}

// Count returns the sum of counters across rules tagged tag, or across
// every Count rule when tag is negative. It fails if no rule carries the
// requested tag (a positive tag that no Match call ever registered, or a
// negative query when there are no Count rules at all).
func (f *Facade) Count(tag int) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var sum uint
	matched := 0
	for _, r := range f.rules {
		if r.disposition != Count {
			continue
		}
		if tag < 0 || r.tag == tag {
			sum += r.count
			matched++
		}
	}
	if matched == 0 {
		return 0, utils.MakeError(ErrUnmatchedTag, "tag %d", tag)
	}
	return sum, nil
}

// Tags returns every tag a Count rule is registered under, deduplicated and
// in no particular order, for callers (the CLI, a report generator) that
// want to enumerate what Count can be usefully queried with.
func (f *Facade) Tags() []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	seen := make(map[int]bool)
	for _, r := range f.rules {
		if r.disposition == Count {
			seen[r.tag] = true
		}
	}
	return utils.Keys(seen)
}

func composeMessage(priority syslog.Priority, format string, args ...any) string {
	name := priorityName(priority)
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return strings.TrimRight(name+": "+msg, " \t\r\n")
}
