package domain

import (
	"errors"
	"strings"
	"testing"
)

func nameErrKind(err error) NameErrorKind {
	var ne *NameError
	if errors.As(err, &ne) {
		return ne.Kind
	}
	return ""
}

func TestValidateNamespaceName(t *testing.T) {
	tests := []struct {
		name     string
		wantKind NameErrorKind
	}{
		{"corp", ""},
		{"corp-dns.internal", ""},
		{"0-9", ""},
		{"", NameInvalidCharacterSet},
		{"Corp", NameInvalidCharacterSet},
		{"corp_dns", NameInvalidCharacterSet},
		{strings.Repeat("a", MaxNamespaceNameLength), ""},
		{strings.Repeat("a", MaxNamespaceNameLength+1), NameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNamespaceName(tt.name)
			if got := nameErrKind(err); got != tt.wantKind {
				t.Errorf("ValidateNamespaceName(%q) kind = %q, want %q (err=%v)", tt.name, got, tt.wantKind, err)
			}
		})
	}
}

func TestValidateZoneName(t *testing.T) {
	tests := []struct {
		name     string
		wantKind NameErrorKind
	}{
		{"example.com", ""},
		{"a.b.c.example.org", ""},
		{"label-with-hyphen.com", ""},
		{"localhost", ""},
		{"x1", ""},
		{"Example.COM", ""},
		{"", NameInvalidCharacterSet},
		{"example..com", NameDoubleDot},
		{".example.com", NameEdgeDashOrDot},
		{"example.com.", NameEdgeDashOrDot},
		{"-start.com", NameEdgeDashOrDot},
		{"end-.com", NameEdgeDashOrDot},
		{"sub.-mid.com", NameEdgeDashOrDot},
		{"invalid_char.com", NameInvalidCharacterSet},
		{"example.c0m", NameInvalidCharacterSet},
		{"example.c", NameInvalidCharacterSet},
		{strings.Repeat("a", MaxLabelLength) + ".com", ""},
		{strings.Repeat("a", MaxLabelLength+1) + ".com", NameTooLong},
		{strings.Repeat("a.", MaxZoneLabels) + "com", NameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateZoneName(tt.name)
			if got := nameErrKind(err); got != tt.wantKind {
				t.Errorf("ValidateZoneName(%q) kind = %q, want %q (err=%v)", tt.name, got, tt.wantKind, err)
			}
		})
	}
}

func TestValidateRrName(t *testing.T) {
	tests := []struct {
		name     string
		zone     string
		wantKind NameErrorKind
	}{
		{"@", "example.com", ""},
		{"*", "example.com", ""},
		{"www", "example.com", ""},
		{"a.b.c", "example.com", ""},
		{"*.dev", "example.com", ""},
		{"_dmarc", "example.com", ""},
		{"_sip._tcp", "example.com", ""},
		{"_x._y._z", "example.com", ""},
		{"a._b", "example.com", ""},
		{"*._tcp", "example.com", ""},
		{"_", "example.com", NameInvalidCharacterSet},
		{"__x", "example.com", NameInvalidCharacterSet},
		{"a_b", "example.com", NameInvalidCharacterSet},
		{"a.b_", "example.com", NameInvalidCharacterSet},
		{"_-x", "example.com", NameEdgeDashOrDot},
		{"a.-b", "example.com", NameEdgeDashOrDot},
		{"a._-b", "example.com", NameEdgeDashOrDot},
		{"-abc", "example.com", NameEdgeDashOrDot},
		{"abc-", "example.com", NameEdgeDashOrDot},
		{".abc", "example.com", NameEdgeDashOrDot},
		{"abc.", "", ""},
		{"a..b", "example.com", NameDoubleDot},
		{"ab_", "example.com", NameInvalidCharacterSet},
		{"a*b", "example.com", NameInvalidCharacterSet},
		{"**", "example.com", NameInvalidCharacterSet},
		{"sp ace", "example.com", NameInvalidCharacterSet},
		{strings.Repeat("a", MaxRelativeNameLength), "example.com", ""},
		{strings.Repeat("a", MaxRelativeNameLength+1), "example.com", NameTooLong},

		{"www.example.com.", "example.com", ""},
		{"_sip._tcp.example.com.", "example.com", ""},
		{"a.-b.example.com.", "example.com", NameEdgeDashOrDot},
		{"a_b.example.com.", "example.com", NameInvalidCharacterSet},
		{"example.com.", "example.com", ""},
		{"*.example.com.", "example.com", ""},
		{"WWW.Example.Com.", "example.com", ""},
		{"www.other.org.", "example.com", NameDoesNotEndWithZone},
		{"www.notexample.com.", "example.com", NameDoesNotEndWithZone},
		{"www..example.com.", "example.com", NameDoubleDot},
		{"-www.example.com.", "example.com", NameEdgeDashOrDot},
		{".", "example.com", NameEdgeDashOrDot},
		{strings.Repeat("a", MaxLabelLength+1) + ".example.com.", "example.com", NameTooLong},
		{strings.Repeat("abcdefgh.", 30) + "example.com.", "example.com", NameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRrName(tt.name, tt.zone)
			if got := nameErrKind(err); got != tt.wantKind {
				t.Errorf("ValidateRrName(%q, %q) kind = %q, want %q (err=%v)", tt.name, tt.zone, got, tt.wantKind, err)
			}
		})
	}
}

func TestRelativeName(t *testing.T) {
	tests := []struct {
		name, zone, want string
	}{
		{"www", "example.com", "www"},
		{"@", "example.com", "@"},
		{"www.example.com.", "example.com", "www"},
		{"WWW.Example.COM.", "example.com", "WWW"},
		{"example.com.", "example.com", "@"},
		{"Example.Com.", "example.com.", "@"},
		{"*.dev.example.com.", "example.com", "*.dev"},
		{"_sip._tcp.example.com.", "example.com", "_sip._tcp"},
		{"www.other.org.", "example.com", "www.other.org."},
		{"www.notexample.com.", "example.com", "www.notexample.com."},
	}
	for _, tt := range tests {
		if got := RelativeName(tt.name, tt.zone); got != tt.want {
			t.Errorf("RelativeName(%q, %q) = %q, want %q", tt.name, tt.zone, got, tt.want)
		}
	}
}

// The label grammar is the same in both forms.
func TestRelativeFormAcceptsAbsoluteForm(t *testing.T) {
	for _, name := range []string{"www.example.com.", "a._b.example.com.", "_x._y._z.example.com.", "*.dev.example.com.", "example.com."} {
		if err := ValidateRrName(name, "example.com"); err != nil {
			t.Fatalf("ValidateRrName(%q) = %v", name, err)
		}
		rel := RelativeName(name, "example.com")
		if err := ValidateRrName(rel, "example.com"); err != nil {
			t.Errorf("relative form %q of %q rejected: %v", rel, name, err)
		}
	}
}

func TestValidateRrNameForType(t *testing.T) {
	if err := ValidateRrNameForType("_srv", TypeA, "example.com"); nameErrKind(err) != NameInvalidCharacterSet {
		t.Errorf("expected underscore to be rejected for A, got %v", err)
	}
	if err := ValidateRrNameForType("_srv", TypeAAAA, "example.com"); err == nil {
		t.Errorf("expected underscore to be rejected for AAAA")
	}
	if err := ValidateRrNameForType("_dmarc", TypeTXT, "example.com"); err != nil {
		t.Errorf("unexpected error for TXT: %v", err)
	}
}

func TestValidateTargetName(t *testing.T) {
	for _, ok := range []string{"mail.example.net.", "mail", "@", "ns1.other.org."} {
		if err := ValidateTargetName(ok); err != nil {
			t.Errorf("ValidateTargetName(%q) unexpected error: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "a..b.", "-mail", "mail_box"} {
		if err := ValidateTargetName(bad); err == nil {
			t.Errorf("ValidateTargetName(%q) expected error", bad)
		}
	}
}

func TestNameErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ValidateRrName("-abc", "z.com"), "relative name '-abc' must not start or end with dash or dot"},
		{ValidateRrName("a..b", "z.com"), "relative name 'a..b' can not contain two successive dots"},
		{ValidateRrName("ab_", "z.com"), "relative name 'ab_' must be '@', '*' or an alpha-numeric string"},
		{ValidateRrName(strings.Repeat("a", 64), "z.com"), "is too long (length must be <= 63)"},
	}
	for _, tt := range tests {
		if tt.err == nil || !strings.Contains(tt.err.Error(), tt.want) {
			t.Errorf("error = %v, want containing %q", tt.err, tt.want)
		}
	}
}

func TestAbsoluteName(t *testing.T) {
	tests := []struct{ name, zone, want string }{
		{"@", "example.com", "example.com."},
		{"www", "example.com", "www.example.com."},
		{"www.example.com.", "example.com", "www.example.com."},
	}
	for _, tt := range tests {
		if got := AbsoluteName(tt.name, tt.zone); got != tt.want {
			t.Errorf("AbsoluteName(%q, %q) = %q, want %q", tt.name, tt.zone, got, tt.want)
		}
	}
}
