package domain

import (
	"regexp"
	"strings"
)

// Name length limits. Earlier deployments disagreed on these (63, 64, 253, 255);
// every check in this package reads them from here.
const (
	MaxLabelLength         = 63
	MaxRelativeNameLength  = 63
	MaxNameLength          = 255
	MaxNamespaceNameLength = 63
	MaxZoneLabels          = 127
)

const (
	subjectNamespace = "namespace"
	subjectZone      = "zone"
	subjectRelative  = "relative"
	subjectAbsolute  = "absolute"
	subjectHostname  = "hostname"
)

var (
	namespaceRegex = regexp.MustCompile(`^[-0-9a-z.]+$`)
	zoneLabelRegex = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	tldRegex       = regexp.MustCompile(`^[A-Za-z]{2,63}$`)
	rrLabelRegex   = regexp.MustCompile(`^_?[A-Za-z0-9-]+$`)
)

// ValidateNamespaceName checks a namespace name: 1-63 characters of [-0-9a-z.].
func ValidateNamespaceName(name string) error {
	if len(name) > MaxNamespaceNameLength {
		return &NameError{Kind: NameTooLong, Subject: subjectNamespace, Value: name, Limit: MaxNamespaceNameLength}
	}
	if !namespaceRegex.MatchString(name) {
		return &NameError{Kind: NameInvalidCharacterSet, Subject: subjectNamespace, Value: name}
	}
	return nil
}

// ValidateZoneName checks a zone name such as "example.com". A single label is
// accepted as is; with more than one label the last must be letters only.
func ValidateZoneName(name string) error {
	if name == "" {
		return &NameError{Kind: NameInvalidCharacterSet, Subject: subjectZone, Value: name}
	}
	if len(name) > MaxNameLength {
		return &NameError{Kind: NameTooLong, Subject: subjectZone, Value: name, Limit: MaxNameLength}
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return &NameError{Kind: NameEdgeDashOrDot, Subject: subjectZone, Value: name}
	}
	if strings.Contains(name, "..") {
		return &NameError{Kind: NameDoubleDot, Subject: subjectZone, Value: name}
	}

	labels := strings.Split(name, ".")
	if len(labels) > MaxZoneLabels {
		return &NameError{Kind: NameTooLong, Subject: subjectZone, Value: name, Limit: MaxZoneLabels}
	}
	for _, label := range labels {
		if len(label) > MaxLabelLength {
			return &NameError{Kind: NameTooLong, Subject: subjectZone, Value: label, Limit: MaxLabelLength}
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return &NameError{Kind: NameEdgeDashOrDot, Subject: subjectZone, Value: label}
		}
		if !zoneLabelRegex.MatchString(label) {
			return &NameError{Kind: NameInvalidCharacterSet, Subject: subjectZone, Value: label}
		}
	}
	if len(labels) > 1 && !tldRegex.MatchString(labels[len(labels)-1]) {
		return &NameError{Kind: NameInvalidCharacterSet, Subject: subjectZone, Value: labels[len(labels)-1]}
	}
	return nil
}

// ValidateRrName checks a record owner name against the grammar. Names with a
// trailing dot are absolute and must end with zone plus the root dot.
func ValidateRrName(name, zone string) error {
	if strings.HasSuffix(name, ".") {
		return validateAbsolute(name, zone)
	}
	return validateRelative(name)
}

// ValidateRrNameForType applies ValidateRrName plus the hostname rule for
// address records: A and AAAA owners must not contain an underscore.
func ValidateRrNameForType(name string, t RecordType, zone string) error {
	if err := ValidateRrName(name, zone); err != nil {
		return err
	}
	if (t == TypeA || t == TypeAAAA) && strings.Contains(name, "_") {
		return &NameError{Kind: NameInvalidCharacterSet, Subject: subjectHostname, Value: name}
	}
	return nil
}

// ValidateTargetName checks a hostname carried in record data (cname, mx, ns...).
// Absolute targets may point outside the zone.
func ValidateTargetName(name string) error {
	if name == "@" {
		return nil
	}
	if strings.HasSuffix(name, ".") {
		return validateAbsolute(name, "")
	}
	return validateRelative(name)
}

func validateRelative(name string) error {
	if name == "@" || name == "*" {
		return nil
	}
	if name == "" {
		return &NameError{Kind: NameInvalidCharacterSet, Subject: subjectRelative, Value: name}
	}
	if strings.HasPrefix(name, "-") || strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, "-") || strings.HasSuffix(name, ".") {
		return &NameError{Kind: NameEdgeDashOrDot, Subject: subjectRelative, Value: name}
	}
	if strings.Contains(name, "..") {
		return &NameError{Kind: NameDoubleDot, Subject: subjectRelative, Value: name}
	}
	if len(name) > MaxRelativeNameLength {
		return &NameError{Kind: NameTooLong, Subject: subjectRelative, Value: name, Limit: MaxRelativeNameLength}
	}

	body := strings.TrimPrefix(name, "*.")
	if strings.HasPrefix(body, "-") || strings.HasPrefix(body, "_-") {
		return &NameError{Kind: NameEdgeDashOrDot, Subject: subjectRelative, Value: name}
	}
	for _, label := range strings.Split(body, ".") {
		if strings.HasPrefix(strings.TrimPrefix(label, "_"), "-") {
			return &NameError{Kind: NameEdgeDashOrDot, Subject: subjectRelative, Value: name}
		}
		if !rrLabelRegex.MatchString(label) {
			return &NameError{Kind: NameInvalidCharacterSet, Subject: subjectRelative, Value: name}
		}
	}
	return nil
}

func validateAbsolute(name, zone string) error {
	if len(name) > MaxNameLength {
		return &NameError{Kind: NameTooLong, Subject: subjectAbsolute, Value: name, Limit: MaxNameLength}
	}
	trimmed := strings.TrimSuffix(name, ".")
	if trimmed == "" {
		return &NameError{Kind: NameEdgeDashOrDot, Subject: subjectAbsolute, Value: name}
	}

	for i, component := range strings.Split(trimmed, ".") {
		if component == "" {
			return &NameError{Kind: NameDoubleDot, Subject: subjectAbsolute, Value: name}
		}
		if i == 0 && component == "*" {
			continue
		}
		if component == "@" || component == "*" {
			return &NameError{Kind: NameInvalidCharacterSet, Subject: subjectRelative, Value: component}
		}
		if len(component) > MaxLabelLength {
			return &NameError{Kind: NameTooLong, Subject: subjectRelative, Value: component, Limit: MaxLabelLength}
		}
		if err := validateRelative(component); err != nil {
			return err
		}
	}

	if zone != "" && !InZone(name, zone) {
		return &NameError{Kind: NameDoesNotEndWithZone, Subject: subjectAbsolute, Value: name}
	}
	return nil
}

// InZone reports whether the absolute name is the zone apex or below it.
func InZone(name, zone string) bool {
	n := strings.ToLower(name)
	z := strings.ToLower(strings.TrimSuffix(zone, ".")) + "."
	return n == z || strings.HasSuffix(n, "."+z)
}

// RelativeName returns the owner name relative to zone: "@" for the apex and
// the leading labels for names below it. Relative names and absolute names
// outside the zone are returned unchanged.
func RelativeName(name, zone string) string {
	if !strings.HasSuffix(name, ".") || !InZone(name, zone) {
		return name
	}
	suffix := len(strings.TrimSuffix(zone, ".")) + 1
	if len(name) == suffix {
		return "@"
	}
	return name[:len(name)-suffix-1]
}

// AbsoluteName resolves a record owner name against its zone.
func AbsoluteName(name, zone string) string {
	switch {
	case strings.HasSuffix(name, "."):
		return name
	case name == "@":
		return zone + "."
	}
	return name + "." + zone + "."
}
