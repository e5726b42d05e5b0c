// Package grd reads Chromium-style GRD resource descriptors.
//
// A GRD file is an XML document that may split its messages into satellite
// GRDP files, each declared with a <part file="..."/> element. The file
// attribute is relative to the directory of the document that declares it.
package grd

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// Sentinel errors. Use errors.Is against an error returned by this package.
var (
	ErrDescriptorNotFound = errors.New("descriptor not found")
	ErrDescriptorParse    = errors.New("descriptor parse error")
)

// Error describes a failure reading one descriptor.
type Error struct {
	Path string
	Kind error // ErrDescriptorNotFound or ErrDescriptorParse
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Path, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Parts returns the file attribute of every <part> element in the
// descriptor, in document order. Duplicates are kept.
func Parts(descriptorPath string) ([]string, error) {
	f, err := os.Open(descriptorPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Path: descriptorPath, Kind: ErrDescriptorNotFound}
		}
		return nil, fmt.Errorf("reading %s: %w", descriptorPath, err)
	}
	defer f.Close()

	parts, err := ParseParts(f)
	if err != nil {
		return nil, &Error{Path: descriptorPath, Kind: ErrDescriptorParse, Err: err}
	}
	return parts, nil
}

// ParseParts scans an XML stream for <part file="..."> elements.
func ParseParts(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	dec.Entity = xml.HTMLEntity

	parts := []string{}
	sawRoot := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true
		if start.Name.Local != "part" {
			continue
		}
		file, ok := attr(start, "file")
		if !ok {
			line, _ := dec.InputPos()
			return nil, fmt.Errorf("line %d: <part> without file attribute", line)
		}
		parts = append(parts, file)
	}
	if !sawRoot {
		return nil, errors.New("no root element")
	}
	return parts, nil
}

func attr(el xml.StartElement, name string) (string, bool) {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// PartsRecursive is like Parts but also follows parts declared by the
// satellite files themselves. Each returned name is slash-separated and
// relative to the directory of descriptorPath, listed depth-first in
// document order. Satellites that do not exist on disk are returned but not
// descended into.
//
// A name for which skip returns true is neither returned nor read, so the
// parts it declares are pruned as well. skip may be nil.
func PartsRecursive(descriptorPath string, skip func(name string) bool) ([]string, error) {
	top, err := Parts(descriptorPath)
	if err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(descriptorPath)
	visited := map[string]bool{filepath.Clean(descriptorPath): true}
	var out []string

	var walk func(rel string) error
	walk = func(rel string) error {
		if skip != nil && skip(rel) {
			return nil
		}
		out = append(out, rel)
		abs := filepath.Join(baseDir, filepath.FromSlash(rel))
		if visited[abs] {
			return nil
		}
		visited[abs] = true
		if _, err := os.Stat(abs); err != nil {
			return nil
		}
		nested, err := Parts(abs)
		if err != nil {
			return err
		}
		for _, n := range nested {
			if err := walk(path.Join(path.Dir(rel), filepath.ToSlash(n))); err != nil {
				return err
			}
		}
		return nil
	}

	for _, p := range top {
		if err := walk(path.Clean(filepath.ToSlash(p))); err != nil {
			return nil, err
		}
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
