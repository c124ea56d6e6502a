package ui

import (
	"fmt"
	"io"
	"sync"
)

// Status is the outcome of one step of a sequential run.
type Status string

const (
	StatusPublished Status = "published"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
	StatusPlanned   Status = "would publish"
)

// Progress reports the steps of a run as "[n/total] status label" lines.
type Progress struct {
	out   io.Writer
	total int
	n     int
	mu    sync.Mutex
}

// NewProgress creates a progress reporter for n steps.
func NewProgress(out io.Writer, total int) *Progress {
	return &Progress{out: out, total: total}
}

// Step records one finished step and prints it.
func (p *Progress) Step(status Status, label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n++
	_, _ = fmt.Fprintf(p.out, "[%d/%d] %s %s\n", p.n, p.total, status, label)
}

// Log prints an informational message within the progress context.
func (p *Progress) Log(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}
