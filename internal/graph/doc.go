// Package graph builds the workspace dependency graph from package manifests
// and answers the questions the rest of the tool asks of it: which packages
// depend on a given package, and in which order packages can be published.
// Only normal and build edges constrain publishing; dev edges are kept for
// requirement rewrites but never ordered.
package graph
