package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestIsAdmitted(t *testing.T) {
	rule := &Zonerule{ZoneID: "z1", NamePat: `^[-a-zA-Z0-9_.]+$`, TypePat: `^(A|AAAA|CNAME|MX)$`}

	tests := []struct {
		name     string
		rule     *Zonerule
		mode     RuleMode
		rrName   string
		rrType   RecordType
		admitted bool
	}{
		{"allowed name and type", rule, RuleOpenIfUnset, "www", TypeA, true},
		{"type outside pattern", rule, RuleOpenIfUnset, "www", TypeNS, false},
		{"apex excluded by namepat", rule, RuleOpenIfUnset, "@", TypeA, false},
		{"no rule open", nil, RuleOpenIfUnset, "anything", TypeTXT, true},
		{"no rule deny", nil, RuleDenyIfUnset, "anything", TypeTXT, false},
		{"rule ignores mode", rule, RuleDenyIfUnset, "mail", TypeMX, true},
		{"unanchored pattern is anchored", &Zonerule{NamePat: "www", TypePat: "A"}, RuleOpenIfUnset, "www2", TypeA, false},
		{"unanchored type pattern is anchored", &Zonerule{NamePat: "www", TypePat: "A"}, RuleOpenIfUnset, "www", TypeAAAA, false},
		{"alternation stays grouped", &Zonerule{NamePat: "a|b", TypePat: "TXT"}, RuleOpenIfUnset, "ab", TypeTXT, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsAdmitted(tt.rule, tt.mode, tt.rrName, tt.rrType)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.admitted {
				t.Errorf("IsAdmitted(%q, %q) = %v, want %v", tt.rrName, tt.rrType, got, tt.admitted)
			}
		})
	}
}

func TestIsAdmittedInvalidPattern(t *testing.T) {
	ok, err := IsAdmitted(&Zonerule{NamePat: "(", TypePat: "A"}, RuleOpenIfUnset, "www", TypeA)
	if ok {
		t.Errorf("expected broken rule to admit nothing")
	}
	if !errors.Is(err, ErrInvalidRule) {
		t.Errorf("expected ErrInvalidRule, got %v", err)
	}
}

func TestZoneruleValidate(t *testing.T) {
	if err := (&Zonerule{NamePat: ".*", TypePat: "A|AAAA"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (&Zonerule{NamePat: "[", TypePat: "A"}).Validate(); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("expected ErrInvalidRule for bad namepat, got %v", err)
	}
	long := strings.Repeat("a", MaxRulePatternLength+1)
	if err := (&Zonerule{NamePat: ".*", TypePat: long}).Validate(); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("expected ErrInvalidRule for long typepat, got %v", err)
	}
}

func TestParseRuleMode(t *testing.T) {
	for in, want := range map[string]RuleMode{"": RuleOpenIfUnset, "open": RuleOpenIfUnset, "deny": RuleDenyIfUnset} {
		got, err := ParseRuleMode(in)
		if err != nil || got != want {
			t.Errorf("ParseRuleMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseRuleMode("closed"); err == nil {
		t.Errorf("expected error for unknown mode")
	}
}
