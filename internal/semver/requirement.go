package semver

import (
	"errors"
	"fmt"
	"strings"

	mm "github.com/Masterminds/semver/v3"
)

// ErrUnsupportedRequirement is returned when a requirement must be rewritten
// but is not a single comparator (e.g. a range or a wildcard pattern).
var ErrUnsupportedRequirement = errors.New("unsupported requirement")

// Op is the comparator of a single-comparator requirement.
type Op string

const (
	// OpDefault is a bare version ("1.2.3"), which Cargo reads as a caret requirement.
	OpDefault   Op = ""
	OpCaret     Op = "^"
	OpTilde     Op = "~"
	OpExact     Op = "="
	OpGreaterEq Op = ">="
)

// Requirement is a version requirement as authored in a manifest.
//
// Examples:
// - "1.2.3" (caret)
// - "^0.4"
// - "~1.4.2"
// - "=2.0.0"
// - ">=1.2, <1.5" (compound; checkable but not rewritable)
type Requirement struct {
	raw    string
	op     Op
	base   *mm.Version // nil unless the requirement is a single rewritable comparator
	simple bool
	c      *mm.Constraints
}

// ParseRequirement parses a Cargo-style requirement string. The empty string
// is valid and means "no version requirement" (e.g. a path-only dependency).
func ParseRequirement(raw string) (Requirement, error) {
	raw = strings.TrimSpace(raw)
	r := Requirement{raw: raw}
	if raw == "" || raw == "*" {
		return r, nil
	}

	c, err := mm.NewConstraint(normalizeConstraint(raw))
	if err != nil {
		return Requirement{}, fmt.Errorf("semver: parse requirement %q: %w", raw, err)
	}
	r.c = c

	if strings.ContainsAny(raw, ",|") {
		return r, nil
	}
	op, rest := splitOp(raw)
	if op == "" && rest != raw {
		// Strict comparators other than the rewritable set (">", "<", "<=").
		return r, nil
	}
	release, _, _ := strings.Cut(rest, "-")
	if strings.ContainsAny(release, "*xX ") {
		return r, nil
	}
	base, err := mm.NewVersion(rest)
	if err != nil {
		return r, nil
	}
	r.op = op
	r.base = base
	r.simple = true
	return r, nil
}

// MustParseRequirement is like ParseRequirement but panics on error. Use only in tests.
func MustParseRequirement(raw string) Requirement {
	r, err := ParseRequirement(raw)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Requirement) String() string { return r.raw }

// IsEmpty reports whether no version requirement was authored.
func (r Requirement) IsEmpty() bool { return r.raw == "" }

// IsWildcard reports whether the requirement is "*".
func (r Requirement) IsWildcard() bool { return r.raw == "*" }

// Floating reports whether the requirement accepts any release, so it can
// never become stale (empty or "*").
func (r Requirement) Floating() bool { return r.IsEmpty() || r.IsWildcard() }

// Simple reports whether the requirement is a single rewritable comparator.
func (r Requirement) Simple() bool { return r.simple }

// Allows reports whether v satisfies the requirement.
func (r Requirement) Allows(v Version) bool {
	if r.IsEmpty() {
		return true
	}
	if v.v == nil {
		return false
	}
	if r.c == nil {
		// "*" accepts every release.
		return v.Prerelease() == ""
	}
	return r.c.Check(v.v)
}

// Targets reports whether the requirement's lower bound is exactly v, i.e.
// rewriting it toward v would not change it. Floating requirements always
// target every version.
func (r Requirement) Targets(v Version) bool {
	if r.Floating() {
		return true
	}
	if !r.simple || v.v == nil {
		return false
	}
	return r.base.Compare(v.v) == 0 && r.base.Prerelease() == v.Prerelease()
}

// Retarget returns the requirement rewritten to require v, keeping the
// comparator style as authored. Floating requirements are returned unchanged.
func (r Requirement) Retarget(v Version) (string, error) {
	if r.Floating() {
		return r.raw, nil
	}
	if !r.simple {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedRequirement, r.raw)
	}
	if v.v == nil {
		return "", fmt.Errorf("semver: retarget %q to empty version", r.raw)
	}
	s := fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
	if pre := v.Prerelease(); pre != "" {
		s += "-" + pre
	}
	return string(r.op) + s, nil
}

// splitOp separates a leading comparator from the version text. For strict
// comparators outside the rewritable set it returns ("", rest).
func splitOp(raw string) (Op, string) {
	for _, op := range []string{">=", "<=", ">", "<", "=", "^", "~"} {
		if !strings.HasPrefix(raw, op) {
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(raw, op))
		switch Op(op) {
		case OpGreaterEq, OpExact, OpCaret, OpTilde:
			return Op(op), rest
		}
		return "", rest
	}
	return OpDefault, raw
}

// normalizeConstraint rewrites bare versions to explicit carets, since a bare
// version is a caret requirement in Cargo but an exact one in Masterminds.
func normalizeConstraint(raw string) string {
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" && p[0] >= '0' && p[0] <= '9' {
			p = "^" + p
		}
		parts[i] = p
	}
	return strings.Join(parts, ", ")
}
