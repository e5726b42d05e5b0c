// Package rebase materializes downstream localization files from their
// upstream counterparts.
//
// Every mapping entry is an independent task: the upstream file is read, the
// ordered Ruleset is applied, and the result overwrites the downstream file.
// Entries run concurrently; a failing entry does not stop the others.
// This is plain text substitution; it does not filter XML structure.
package rebase

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/brave/l10nkit/mapping"
)

// Per-entry failure kinds.
var (
	ErrFileRead     = errors.New("file read error")
	ErrFileWrite    = errors.New("file write error")
	ErrSubstitution = errors.New("substitution error")
)

// EntryError is the failure of a single mapping entry.
type EntryError struct {
	Kind  error // ErrFileRead, ErrFileWrite or ErrSubstitution
	Entry mapping.Entry
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("%v: %s -> %s: %v", e.Kind, e.Entry.Upstream, e.Entry.Downstream, e.Err)
}

func (e *EntryError) Unwrap() []error { return []error{e.Kind, e.Err} }

// Lock records which upstream contents have already been rebased.
type Lock interface {
	IsChanged(path, content string) bool
	Update(path, content string)
}

// Engine rebases every entry of a mapping.
type Engine struct {
	// FS defaults to OSFS.
	FS FS
	// Rules defaults to DefaultRules().
	Rules Ruleset
	// MaxConcurrent bounds the number of entries in flight; <= 0 means no limit.
	MaxConcurrent int
	// Lock, when set, skips entries whose upstream content and ruleset are
	// unchanged since the last run and whose downstream file exists.
	Lock Lock
	// DryRun computes every result but writes nothing.
	DryRun bool

	OnLog   func(format string, args ...any)
	OnError func(format string, args ...any)
}

// Status of one processed entry.
type Status int

const (
	StatusWritten Status = iota
	StatusUnchanged
	StatusSkipped
	StatusFailed
	// StatusWouldWrite is reported instead of StatusWritten under DryRun.
	StatusWouldWrite
)

func (s Status) String() string {
	switch s {
	case StatusWritten:
		return "written"
	case StatusUnchanged:
		return "unchanged"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	case StatusWouldWrite:
		return "would write"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Outcome is what happened to one entry.
type Outcome struct {
	Entry  mapping.Entry
	Status Status
	Err    *EntryError
}

// Result lists the outcome of every entry in mapping order.
type Result struct {
	Outcomes []Outcome
}

// Count returns the number of outcomes with status s.
func (r *Result) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Failed returns every entry error in mapping order.
func (r *Result) Failed() []*EntryError {
	var errs []*EntryError
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errs
}

// Err joins every entry error, or returns nil.
func (r *Result) Err() error {
	var errs []error
	for _, e := range r.Failed() {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

func (e *Engine) log(format string, args ...any) {
	if e.OnLog != nil {
		e.OnLog(format, args...)
	}
}

func (e *Engine) logError(format string, args ...any) {
	if e.OnError != nil {
		e.OnError(format, args...)
	}
}

// Rebase processes every entry of m and waits for all of them. The returned
// error joins the per-entry failures; the Result is always non-nil.
//
// Cancelling ctx stops new entries from starting; those entries are reported
// as failed reads carrying the context error.
func (e *Engine) Rebase(ctx context.Context, m *mapping.Mapping) (*Result, error) {
	fsys := e.FS
	if fsys == nil {
		fsys = OSFS{}
	}
	rules := e.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	fingerprint := rules.Fingerprint()

	entries := m.Entries()
	res := &Result{Outcomes: make([]Outcome, len(entries))}

	var g errgroup.Group
	if e.MaxConcurrent > 0 {
		g.SetLimit(e.MaxConcurrent)
	}

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			res.Outcomes[i] = failed(entry, ErrFileRead, err)
			continue
		}
		g.Go(func() error {
			res.Outcomes[i] = e.rebaseEntry(fsys, rules, fingerprint, entry)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range res.Outcomes {
		if o.Err != nil {
			e.logError("%v", o.Err)
		}
	}
	return res, res.Err()
}

func (e *Engine) rebaseEntry(fsys FS, rules Ruleset, fingerprint string, entry mapping.Entry) Outcome {
	text, err := fsys.ReadText(entry.Upstream)
	if err != nil {
		return failed(entry, ErrFileRead, err)
	}

	lockContent := fingerprint + "\x00" + text
	if e.Lock != nil && !e.Lock.IsChanged(entry.Downstream, lockContent) && fsys.Exists(entry.Downstream) {
		return Outcome{Entry: entry, Status: StatusSkipped}
	}

	out, err := rules.Apply(text)
	if err != nil {
		return failed(entry, ErrSubstitution, err)
	}

	if prev, err := fsys.ReadText(entry.Downstream); err == nil && prev == out {
		if e.Lock != nil && !e.DryRun {
			e.Lock.Update(entry.Downstream, lockContent)
		}
		return Outcome{Entry: entry, Status: StatusUnchanged}
	}

	if e.DryRun {
		e.log("Would write %s", entry.Downstream)
		return Outcome{Entry: entry, Status: StatusWouldWrite}
	}

	if err := fsys.WriteText(entry.Downstream, out); err != nil {
		return failed(entry, ErrFileWrite, err)
	}
	if e.Lock != nil {
		e.Lock.Update(entry.Downstream, lockContent)
	}
	e.log("Wrote %s", entry.Downstream)
	return Outcome{Entry: entry, Status: StatusWritten}
}

func failed(entry mapping.Entry, kind, err error) Outcome {
	return Outcome{
		Entry:  entry,
		Status: StatusFailed,
		Err:    &EntryError{Kind: kind, Entry: entry, Err: err},
	}
}
