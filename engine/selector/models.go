package selector

import (
	"regexp"
	"slices"
	"strings"

	"github.com/WessleyAI/vehicle-select/engine/domain"
	"github.com/WessleyAI/vehicle-select/pkg/fn"
)

// ModelFilter decides which model names are offered for a make.
type ModelFilter struct {
	rules     Rules
	overrides map[string]map[string]struct{}
	ruleset   Ruleset
}

// NewModelFilter compiles rules into an ordered ruleset.
func NewModelFilter(rules Rules) *ModelFilter {
	f := &ModelFilter{
		rules:     rules,
		overrides: make(map[string]map[string]struct{}, len(rules.Overrides)),
	}
	for mk, names := range rules.Overrides {
		set := make(map[string]struct{}, len(names))
		for _, n := range names {
			set[strings.ToUpper(n)] = struct{}{}
		}
		f.overrides[strings.ToUpper(mk)] = set
	}
	f.ruleset = Ruleset{
		{Name: "override", Match: f.isOverride, Decision: Include},
		{Name: "commercial-make", Match: f.isCommercialLine, Decision: Exclude},
		{Name: "allow-pattern", Match: f.matchesAllowPattern, Decision: Include},
		{Name: "deny-keyword", Match: f.containsDenyKeyword, Decision: Exclude},
		{Name: "long-numeric-code", Match: func(c Candidate) bool { return longNumericCode.MatchString(c.Name) }, Decision: Exclude},
		{Name: "blank", Match: func(c Candidate) bool { return strings.TrimSpace(c.Name) == "" }, Decision: Exclude},
		{Name: "default", Match: func(Candidate) bool { return true }, Decision: Include},
	}
	return f
}

var defaultFilter = NewModelFilter(DefaultRules())

// ResolveModels filters with the default rules. See ModelFilter.Resolve.
func ResolveModels(mk string, in domain.CategoryResults) ([]string, error) {
	return defaultFilter.Resolve(mk, in)
}

// Allowed reports whether name is offered for mk.
func (f *ModelFilter) Allowed(mk, name string) bool {
	d, _ := f.ruleset.Evaluate(newCandidate(mk, name))
	return d == Include
}

// Explain returns the decision for name and the rule that produced it.
func (f *ModelFilter) Explain(mk, name string) (Decision, string) {
	return f.ruleset.Evaluate(newCandidate(mk, name))
}

// Resolve merges the three category lists, filters, dedupes, sorts and
// appends the catch-all entry. The returned list is always usable; when
// nothing but the catch-all survives, domain.ErrNoModels is returned with it.
func (f *ModelFilter) Resolve(mk string, in domain.CategoryResults) ([]string, error) {
	models := fn.FilterMap(in.Records(), func(r domain.RawRecord) (string, bool) {
		return r.ModelName, f.Allowed(mk, r.ModelName)
	})
	models = fn.Unique(models)
	slices.Sort(models)
	models = append(models, domain.CatchAllModel)
	if len(models) == 1 {
		return models, domain.ErrNoModels
	}
	return models, nil
}

func (f *ModelFilter) isOverride(c Candidate) bool {
	set, ok := f.overrides[c.UpperMake]
	if !ok {
		return false
	}
	_, ok = set[c.Upper]
	return ok
}

// isCommercialLine matches the commercial make's truck lines: pure-letter
// names and names led by a heavy-truck code (FH16, VNL 860).
func (f *ModelFilter) isCommercialLine(c Candidate) bool {
	if f.rules.CommercialMake == "" || c.UpperMake != strings.ToUpper(f.rules.CommercialMake) {
		return false
	}
	if lettersOnly.MatchString(c.Upper) {
		return true
	}
	for _, tok := range f.rules.HeavyTruckTokens {
		if strings.HasPrefix(c.Upper, tok) {
			return true
		}
	}
	return false
}

func (f *ModelFilter) matchesAllowPattern(c Candidate) bool {
	return matchAny(f.rules.AllowPatterns, c.Name)
}

func (f *ModelFilter) containsDenyKeyword(c Candidate) bool {
	for _, kw := range f.rules.DenyKeywords {
		if strings.Contains(c.Upper, kw) {
			return true
		}
	}
	return false
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
