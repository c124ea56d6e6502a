// Package semver parses package versions and Cargo-style requirement strings,
// increments versions by bump kind, and rewrites single-comparator
// requirements to target a new version while keeping their comparator style.
package semver
