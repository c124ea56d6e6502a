// Package journal handles the publish journal, .cargo-mono/publish.lock.yaml.
// The journal records the publish order of the last run and how far it got,
// so an interrupted or failed run can be resumed with only the unpublished
// suffix.
package journal
