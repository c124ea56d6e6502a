package semver

import "fmt"

// Kind selects which version component a bump increments.
type Kind string

const (
	KindMajor Kind = "major"
	KindMinor Kind = "minor"
	KindPatch Kind = "patch"
)

// ParseKind parses a bump kind string, defaulting to "patch".
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindPatch, "":
		return KindPatch, nil
	case KindMinor:
		return KindMinor, nil
	case KindMajor:
		return KindMajor, nil
	default:
		return "", fmt.Errorf("unknown bump kind: %q (must be major, minor, or patch)", s)
	}
}

// BreakingKind returns the kind of a breaking bump of v. Below 1.0.0 the minor
// component is the compatibility boundary, so a breaking change bumps minor.
func BreakingKind(v Version) Kind {
	if v.Major() == 0 {
		return KindMinor
	}
	return KindMajor
}
