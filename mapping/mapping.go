// Package mapping builds the path mapping between upstream resource
// descriptors and their downstream, rebranded counterparts.
//
// A Mapping is built once per run from a list of Registrations and is
// read-only afterwards. Both directions are one-to-one: no two upstream
// files share a downstream file, and no upstream file has two destinations.
package mapping

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"

	"github.com/brave/l10nkit/grd"
)

var (
	// ErrDuplicateTarget is returned when two upstream files would write the
	// same downstream file.
	ErrDuplicateTarget = errors.New("duplicate mapping target")
	// ErrDuplicateSource is returned when one upstream file is given two
	// different downstream files.
	ErrDuplicateSource = errors.New("duplicate mapping source")
)

// DuplicateError reports a registry authoring mistake.
type DuplicateError struct {
	Kind error // ErrDuplicateTarget or ErrDuplicateSource

	Existing Entry
	Added    Entry
}

func (e *DuplicateError) Error() string {
	if e.Kind == ErrDuplicateSource {
		return fmt.Sprintf("%v: %s maps to both %s and %s",
			e.Kind, e.Added.Upstream, e.Existing.Downstream, e.Added.Downstream)
	}
	return fmt.Sprintf("%v: %s is the target of both %s and %s",
		e.Kind, e.Added.Downstream, e.Existing.Upstream, e.Added.Upstream)
}

func (e *DuplicateError) Unwrap() error { return e.Kind }

// Entry is one upstream -> downstream pair.
type Entry struct {
	Upstream   string `yaml:"upstream"`
	Downstream string `yaml:"downstream"`
}

// Registration declares one top-level descriptor pair.
type Registration struct {
	// Upstream is the path of the upstream top-level descriptor.
	Upstream string
	// Downstream is where the rebranded copy is written.
	Downstream string
	// Expand adds every <part> satellite of Upstream to the mapping, placed
	// next to Downstream under the same file name. Pairs whose file names
	// differ between the two trees are registered with Expand unset.
	Expand bool
	// Exclude lists satellite file names (as written in the descriptor)
	// that are not propagated.
	Exclude []string
}

// Mapping is the flat forward mapping plus its inverse.
type Mapping struct {
	entries []Entry
	forward map[string]string
	inverse map[string]string
}

// Option configures Build.
type Option func(*builder)

// WithLogf routes progress messages to fn.
func WithLogf(fn func(format string, args ...any)) Option {
	return func(b *builder) { b.logf = fn }
}

// WithRecursiveParts also follows parts declared by satellite files.
func WithRecursiveParts() Option {
	return func(b *builder) { b.recursive = true }
}

type builder struct {
	logf      func(format string, args ...any)
	recursive bool

	entries []Entry
	owner   []int // registration index that added entries[i]
	byUp    map[string]int
	byDown  map[string]int
}

func (b *builder) log(format string, args ...any) {
	if b.logf != nil {
		b.logf(format, args...)
	}
}

// Build expands every registration into a single mapping. Any error aborts
// the whole build; a partial mapping is never returned.
func Build(regs []Registration, opts ...Option) (*Mapping, error) {
	b := &builder{
		byUp:   make(map[string]int),
		byDown: make(map[string]int),
	}
	for _, opt := range opts {
		opt(b)
	}

	for i, reg := range regs {
		if reg.Upstream == "" || reg.Downstream == "" {
			return nil, fmt.Errorf("registration #%d: upstream and downstream paths are required", i+1)
		}
		up, err := normalize(reg.Upstream)
		if err != nil {
			return nil, err
		}
		down, err := normalize(reg.Downstream)
		if err != nil {
			return nil, err
		}
		if err := b.add(i, Entry{Upstream: up, Downstream: down}); err != nil {
			return nil, err
		}
		if !reg.Expand {
			continue
		}
		if err := b.expand(i, up, down, reg.Exclude); err != nil {
			return nil, err
		}
	}

	m := &Mapping{
		entries: b.entries,
		forward: make(map[string]string, len(b.entries)),
	}
	for _, e := range b.entries {
		m.forward[e.Upstream] = e.Downstream
	}
	inv, err := invert(b.entries)
	if err != nil {
		return nil, err
	}
	m.inverse = inv
	return m, nil
}

func (b *builder) expand(reg int, up, down string, exclude []string) error {
	b.log("Adding mappings for GRD: %s", up)

	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}

	var parts []string
	var err error
	if b.recursive {
		parts, err = grd.PartsRecursive(up, func(name string) bool { return skip[name] })
	} else {
		parts, err = grd.Parts(up)
	}
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		return nil
	}

	upDir, downDir := filepath.Dir(up), filepath.Dir(down)
	added := 0
	for _, part := range parts {
		if skip[part] {
			continue
		}
		rel := filepath.FromSlash(part)
		e := Entry{
			Upstream:   filepath.Join(upDir, rel),
			Downstream: filepath.Join(downDir, rel),
		}
		before := len(b.entries)
		if err := b.add(reg, e); err != nil {
			return err
		}
		added += len(b.entries) - before
	}
	b.log("  - Added %d GRDP.", added)
	return nil
}

// add appends e. A pair already added by the same registration is ignored,
// which absorbs duplicate <part> declarations inside one descriptor.
func (b *builder) add(reg int, e Entry) error {
	if i, ok := b.byDown[e.Downstream]; ok {
		existing := b.entries[i]
		if existing == e && b.owner[i] == reg {
			return nil
		}
		return &DuplicateError{Kind: ErrDuplicateTarget, Existing: existing, Added: e}
	}
	if i, ok := b.byUp[e.Upstream]; ok {
		return &DuplicateError{Kind: ErrDuplicateSource, Existing: b.entries[i], Added: e}
	}
	b.byUp[e.Upstream] = len(b.entries)
	b.byDown[e.Downstream] = len(b.entries)
	b.entries = append(b.entries, e)
	b.owner = append(b.owner, reg)
	return nil
}

// invert swaps every pair, refusing to overwrite a downstream key.
func invert(entries []Entry) (map[string]string, error) {
	inv := make(map[string]string, len(entries))
	seen := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if prev, ok := seen[e.Downstream]; ok {
			return nil, &DuplicateError{Kind: ErrDuplicateTarget, Existing: prev, Added: e}
		}
		seen[e.Downstream] = e
		inv[e.Downstream] = e.Upstream
	}
	return inv, nil
}

func normalize(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", p, err)
	}
	return abs, nil
}

// Entries returns the pairs in registration order.
func (m *Mapping) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of pairs.
func (m *Mapping) Len() int { return len(m.entries) }

// Forward returns a copy of the upstream -> downstream map.
func (m *Mapping) Forward() map[string]string { return maps.Clone(m.forward) }

// Inverse returns a copy of the downstream -> upstream map.
func (m *Mapping) Inverse() map[string]string { return maps.Clone(m.inverse) }

// Downstream looks up the destination of an upstream path.
func (m *Mapping) Downstream(upstream string) (string, bool) {
	d, ok := m.forward[filepath.Clean(upstream)]
	return d, ok
}

// Upstream looks up the source of a downstream path.
func (m *Mapping) Upstream(downstream string) (string, bool) {
	u, ok := m.inverse[filepath.Clean(downstream)]
	return u, ok
}

// Downstreams returns every destination path in registration order.
func (m *Mapping) Downstreams() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Downstream
	}
	return out
}
