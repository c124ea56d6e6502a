// Package bump computes version bump plans. Given a root package and a bump
// kind it decides the root's new version, which dependents hold requirements
// that must be rewritten, and, when dependents are forced, their own patch
// bumps. Computing a plan never touches the filesystem.
package bump
