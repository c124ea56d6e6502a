// Package git provides a wrapper around the Git CLI commands used by
// cargo-mono: detecting uncommitted manifest changes before a bump rewrites
// them, and committing and tagging the rewritten manifests afterwards.
package git
