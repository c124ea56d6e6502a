// Package publish executes a publish order one package at a time. A package
// is only published after the previous one has succeeded; on the first
// failure the run stops and reports which prefix of the order was completed
// and which suffix remains, so the run can be resumed.
package publish
