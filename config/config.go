// Package config implements .l10nkit.yaml configuration file support.
//
// The configuration is the registry of upstream -> downstream descriptor
// pairs plus the lists consumed by translation sync tools. It is loaded once
// per run and resolved into absolute paths; nothing in it is mutated
// afterwards. Without a config file the built-in Chromium -> Brave registry
// is used (see Builtin).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/brave/l10nkit/classify"
	"github.com/brave/l10nkit/mapping"
	"github.com/brave/l10nkit/rebase"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .l10nkit.yaml structure.
type File struct {
	// UpstreamRoot is the root of the upstream tree, relative to the config file.
	UpstreamRoot string `yaml:"upstream_root"`
	// DownstreamRoot is the root of the downstream tree, relative to the config file.
	DownstreamRoot string `yaml:"downstream_root"`
	// Registrations are the top-level descriptor pairs.
	Registrations []Registration `yaml:"registrations"`
	// NonGenerated are downstream-only files tracked for translation but never
	// rebased. Entries are relative to DownstreamRoot and may be doublestar globs.
	NonGenerated []string `yaml:"non_generated,omitempty"`
	// TopLevelExtensions overrides classify.DefaultTopLevelExtensions.
	TopLevelExtensions []string `yaml:"top_level_extensions,omitempty"`
	// ExtraPaths are passed through verbatim to sync tools (e.g. message
	// catalogs of sibling repositories, relative to DownstreamRoot).
	ExtraPaths []string `yaml:"extra_paths,omitempty"`
	// RecursiveParts also maps parts declared by satellite files.
	RecursiveParts bool `yaml:"recursive_parts,omitempty"`
	// MaxConcurrent bounds parallel rebase tasks (0 = unlimited).
	MaxConcurrent int `yaml:"max_concurrent,omitempty"`
	// Rules replaces the default branding ruleset when non-empty. Order matters.
	Rules []Rule `yaml:"rules,omitempty"`

	// dir is the directory the file was loaded from.
	dir string
}

// Registration is one upstream -> downstream descriptor pair.
type Registration struct {
	// Upstream descriptor path relative to UpstreamRoot.
	Upstream string `yaml:"upstream"`
	// Downstream descriptor path relative to DownstreamRoot.
	Downstream string `yaml:"downstream"`
	// Expand maps every <part> of the upstream descriptor as well.
	Expand bool `yaml:"expand,omitempty"`
	// Exclude lists part file names that are not mapped. Requires Expand.
	Exclude []string `yaml:"exclude,omitempty"`
}

// Rule is a substitution rule as written in YAML.
type Rule struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// FileName is the default config file name.
const FileName = ".l10nkit.yaml"

// Load loads and validates .l10nkit.yaml from the given directory.
// Returns nil if no .l10nkit.yaml exists.
func Load(rootDir string) (*File, error) {
	f, err := LoadFile(filepath.Join(rootDir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return f, err
}

// LoadFile loads and validates the config file at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	f.dir = abs

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

// Validate checks the file for authoring mistakes that do not need the
// filesystem. Duplicate targets are caught later by mapping.Build.
func (f *File) Validate() error {
	if f.UpstreamRoot == "" {
		return errors.New("upstream_root is required")
	}
	if f.DownstreamRoot == "" {
		return errors.New("downstream_root is required")
	}
	if len(f.Registrations) == 0 {
		return errors.New("no registrations")
	}
	for i, r := range f.Registrations {
		if r.Upstream == "" || r.Downstream == "" {
			return fmt.Errorf("registration #%d: upstream and downstream are required", i+1)
		}
		if len(r.Exclude) > 0 && !r.Expand {
			return fmt.Errorf("registration %q: exclude requires expand", r.Upstream)
		}
	}
	for _, ext := range f.TopLevelExtensions {
		if ext == "" || strings.HasPrefix(ext, ".") {
			return fmt.Errorf("top_level_extensions: %q must be a bare extension like \"grd\"", ext)
		}
	}
	if f.MaxConcurrent < 0 {
		return fmt.Errorf("max_concurrent must not be negative (got %d)", f.MaxConcurrent)
	}
	for i, r := range f.Rules {
		if r.Pattern == "" {
			return fmt.Errorf("rule #%d: empty pattern", i+1)
		}
		if _, err := rebase.NewRule(r.Pattern, r.Replacement); err != nil {
			return fmt.Errorf("rule #%d: %w", i+1, err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Resolving
// ---------------------------------------------------------------------------

// Resolved is a File with every path made absolute.
type Resolved struct {
	UpstreamRoot       string
	DownstreamRoot     string
	Registrations      []mapping.Registration
	NonGenerated       []string
	TopLevelExtensions []string
	ExtraPaths         []string
	RecursiveParts     bool
	MaxConcurrent      int
	Rules              rebase.Ruleset
}

// Dir returns the directory the file was loaded from, or "" for a file
// constructed in code.
func (f *File) Dir() string { return f.dir }

// Resolve converts the file into absolute paths. Relative roots are taken
// relative to the config file directory, or to base when the file was not
// loaded from disk. Glob entries in NonGenerated are expanded here.
func (f *File) Resolve(base string) (*Resolved, error) {
	dir := f.dir
	if dir == "" {
		dir = base
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	r := &Resolved{
		UpstreamRoot:       rootPath(absDir, f.UpstreamRoot),
		DownstreamRoot:     rootPath(absDir, f.DownstreamRoot),
		TopLevelExtensions: slices.Clone(f.TopLevelExtensions),
		ExtraPaths:         slices.Clone(f.ExtraPaths),
		RecursiveParts:     f.RecursiveParts,
		MaxConcurrent:      f.MaxConcurrent,
	}
	if len(r.TopLevelExtensions) == 0 {
		r.TopLevelExtensions = slices.Clone(classify.DefaultTopLevelExtensions)
	}

	for _, reg := range f.Registrations {
		r.Registrations = append(r.Registrations, mapping.Registration{
			Upstream:   filepath.Join(r.UpstreamRoot, filepath.FromSlash(reg.Upstream)),
			Downstream: filepath.Join(r.DownstreamRoot, filepath.FromSlash(reg.Downstream)),
			Expand:     reg.Expand,
			Exclude:    slices.Clone(reg.Exclude),
		})
	}

	r.NonGenerated = []string{}
	for _, p := range f.NonGenerated {
		if !hasMeta(p) {
			r.NonGenerated = append(r.NonGenerated, filepath.Join(r.DownstreamRoot, filepath.FromSlash(p)))
			continue
		}
		matches, err := doublestar.Glob(os.DirFS(r.DownstreamRoot), path.Clean(p))
		if err != nil {
			return nil, fmt.Errorf("non_generated %q: %w", p, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			r.NonGenerated = append(r.NonGenerated, filepath.Join(r.DownstreamRoot, filepath.FromSlash(m)))
		}
	}

	if len(f.Rules) == 0 {
		r.Rules = rebase.DefaultRules()
	} else {
		for i, rs := range f.Rules {
			rule, err := rebase.NewRule(rs.Pattern, rs.Replacement)
			if err != nil {
				return nil, fmt.Errorf("rule #%d: %w", i+1, err)
			}
			r.Rules = append(r.Rules, rule)
		}
	}
	return r, nil
}

// BuildMapping builds the mapping for the resolved registry.
func (r *Resolved) BuildMapping(logf func(format string, args ...any)) (*mapping.Mapping, error) {
	opts := []mapping.Option{mapping.WithLogf(logf)}
	if r.RecursiveParts {
		opts = append(opts, mapping.WithRecursiveParts())
	}
	return mapping.Build(r.Registrations, opts...)
}

func rootPath(base, p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}
