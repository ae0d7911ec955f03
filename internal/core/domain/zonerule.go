package domain

import (
	"fmt"
	"regexp"
)

// MaxRulePatternLength bounds each zone rule pattern.
const MaxRulePatternLength = 1024

// RuleMode decides admission for zones without a configured rule.
type RuleMode string

const (
	RuleOpenIfUnset RuleMode = "open"
	RuleDenyIfUnset RuleMode = "deny"
)

// ParseRuleMode maps a configuration value to a RuleMode. Empty means open.
func ParseRuleMode(s string) (RuleMode, error) {
	switch RuleMode(s) {
	case RuleOpenIfUnset, RuleDenyIfUnset:
		return RuleMode(s), nil
	case "":
		return RuleOpenIfUnset, nil
	}
	return "", fmt.Errorf("unknown rule mode %q (want open or deny)", s)
}

// compileRulePattern anchors pat so that it must match the whole subject.
func compileRulePattern(pat string) (*regexp.Regexp, error) {
	if len(pat) > MaxRulePatternLength {
		return nil, fmt.Errorf("%w: pattern longer than %d characters", ErrInvalidRule, MaxRulePatternLength)
	}
	re, err := regexp.Compile(`^(?:` + pat + `)$`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	return re, nil
}

// Validate checks both patterns of the rule.
func (r *Zonerule) Validate() error {
	if _, err := compileRulePattern(r.NamePat); err != nil {
		return fmt.Errorf("namepat: %w", err)
	}
	if _, err := compileRulePattern(r.TypePat); err != nil {
		return fmt.Errorf("typepat: %w", err)
	}
	return nil
}

// IsAdmitted reports whether the zone rule accepts (name, type). A nil rule
// is decided by mode. Patterns are matched against the whole value. A rule
// whose patterns no longer compile admits nothing and returns the compile error.
func IsAdmitted(rule *Zonerule, mode RuleMode, name string, t RecordType) (bool, error) {
	if rule == nil {
		return mode != RuleDenyIfUnset, nil
	}
	namePat, err := compileRulePattern(rule.NamePat)
	if err != nil {
		return false, err
	}
	typePat, err := compileRulePattern(rule.TypePat)
	if err != nil {
		return false, err
	}
	return namePat.MatchString(name) && typePat.MatchString(string(t)), nil
}
