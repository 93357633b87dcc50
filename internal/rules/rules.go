// Package rules resolves declarative per-window overrides from an ordered
// rule table.
package rules

import (
	"fmt"
	"regexp"
	"sync/atomic"
)

// Match selects windows by application id and/or title. Patterns are
// unanchored regular expressions. A Match with no pattern selects every window.
type Match struct {
	AppID *regexp.Regexp
	Title *regexp.Regexp
}

// CompileMatch builds a Match from pattern strings. Empty strings leave the
// corresponding field unconstrained.
func CompileMatch(appID, title string) (Match, error) {
	var m Match
	if appID != "" {
		re, err := regexp.Compile(appID)
		if err != nil {
			return Match{}, fmt.Errorf("app_id pattern %q: %w", appID, err)
		}
		m.AppID = re
	}
	if title != "" {
		re, err := regexp.Compile(title)
		if err != nil {
			return Match{}, fmt.Errorf("title pattern %q: %w", title, err)
		}
		m.Title = re
	}
	return m, nil
}

// Matches reports whether the identity satisfies every set pattern.
func (m Match) Matches(appID, title string) bool {
	if m.AppID != nil && !m.AppID.MatchString(appID) {
		return false
	}
	if m.Title != nil && !m.Title.MatchString(title) {
		return false
	}
	return true
}

// Overrides is the set of fields a rule may force. Nil means "not set".
type Overrides struct {
	Floating *bool
	Opacity  *float32
}

// Rule pairs a matcher with the overrides it applies.
type Rule struct {
	Match Match
	Overrides
}

// Table is an ordered rule list in declaration order.
type Table struct {
	rules []Rule
}

// NewTable returns a table holding rules in the given order.
func NewTable(rules ...Rule) *Table {
	return &Table{rules: append([]Rule(nil), rules...)}
}

// Len returns the number of rules.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// Resolve folds matching rules from last-declared to first-declared. Each
// field takes the value of the most recently declared rule that sets it.
func (t *Table) Resolve(appID, title string) Resolved {
	var out Resolved
	if t == nil {
		return out
	}
	for i := len(t.rules) - 1; i >= 0; i-- {
		r := t.rules[i]
		if !r.Match.Matches(appID, title) {
			continue
		}
		if out.Floating == nil && r.Floating != nil {
			v := *r.Floating
			out.Floating = &v
		}
		if out.Opacity == nil && r.Opacity != nil {
			v := *r.Opacity
			out.Opacity = &v
		}
		if out.Floating != nil && out.Opacity != nil {
			break
		}
	}
	return out
}

// Resolved is the effective override set for one window.
type Resolved Overrides

// IsFloating reports whether a rule forces the window into the floating stack.
func (r Resolved) IsFloating() bool {
	return r.Floating != nil && *r.Floating
}

// OpacityOr returns the forced opacity, or def when no rule sets one.
func (r Resolved) OpacityOr(def float32) float32 {
	if r.Opacity == nil {
		return def
	}
	return *r.Opacity
}

// Snapshot holds the current Resolved value for a window. Writers replace
// the whole value; readers on any goroutine see either the old or new one.
type Snapshot struct {
	p atomic.Pointer[Resolved]
}

// Load returns the current resolution. A zero Snapshot resolves to no overrides.
func (s *Snapshot) Load() Resolved {
	if p := s.p.Load(); p != nil {
		return *p
	}
	return Resolved{}
}

// Store replaces the resolution.
func (s *Snapshot) Store(r Resolved) {
	s.p.Store(&r)
}

// Recompute resolves identity against t and stores the result.
func (s *Snapshot) Recompute(t *Table, appID, title string) Resolved {
	r := t.Resolve(appID, title)
	s.Store(r)
	return r
}
