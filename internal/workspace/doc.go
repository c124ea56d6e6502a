// Package workspace ties configuration, manifest discovery and graph
// construction together. It provides the Context type that holds the
// resolved repository root, the loaded .cargo-mono.yaml and the dependency
// graph of the Cargo workspace.
package workspace
