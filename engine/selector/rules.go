// Package selector reduces raw registry records to the consumer-facing make
// and model lists. Resolution is pure: no I/O, no shared mutable state.
package selector

import "strings"

// Decision is the outcome of a rule.
type Decision int

const (
	Undecided Decision = iota
	Include
	Exclude
)

func (d Decision) String() string {
	switch d {
	case Include:
		return "include"
	case Exclude:
		return "exclude"
	default:
		return "undecided"
	}
}

// Candidate is a model name under evaluation for a make.
type Candidate struct {
	Name      string
	Upper     string
	Make      string
	UpperMake string
}

func newCandidate(mk, name string) Candidate {
	return Candidate{
		Name:      name,
		Upper:     strings.ToUpper(name),
		Make:      mk,
		UpperMake: strings.ToUpper(mk),
	}
}

// Rule pairs a predicate with the decision it yields.
type Rule struct {
	Name     string
	Match    func(Candidate) bool
	Decision Decision
}

// Ruleset is evaluated in order; the first matching rule decides.
type Ruleset []Rule

// Evaluate returns the decision and the name of the rule that made it.
// A candidate no rule matches is excluded.
func (rs Ruleset) Evaluate(c Candidate) (Decision, string) {
	for _, r := range rs {
		if r.Match(c) {
			return r.Decision, r.Name
		}
	}
	return Exclude, ""
}
