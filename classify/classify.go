// Package classify derives the path lists consumed by translation sync tools.
package classify

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/brave/l10nkit/mapping"
)

// DefaultTopLevelExtensions are the extensions of files a translation
// service tracks as one unit: GRD descriptors and JSON message catalogs.
// GRDP satellites are excluded because a single XTB is produced per GRD
// per locale regardless of how many parts it has.
var DefaultTopLevelExtensions = []string{"grd", "json"}

// Views groups the downstream path lists.
type Views struct {
	// Generated are the downstream files produced by rebasing.
	Generated []string `yaml:"generated"`
	// NonGenerated are downstream-only files that are maintained by hand.
	NonGenerated []string `yaml:"non_generated"`
	// All is NonGenerated followed by Generated.
	All []string `yaml:"all"`
	// TopLevel is the subset of All with a top-level extension.
	TopLevel []string `yaml:"top_level"`
}

// Classify builds the views. A nil exts uses DefaultTopLevelExtensions.
func Classify(m *mapping.Mapping, nonGenerated []string, exts []string) Views {
	if exts == nil {
		exts = DefaultTopLevelExtensions
	}

	v := Views{
		Generated:    m.Downstreams(),
		NonGenerated: slices.Clone(nonGenerated),
	}
	if v.NonGenerated == nil {
		v.NonGenerated = []string{}
	}
	v.All = make([]string, 0, len(v.NonGenerated)+len(v.Generated))
	v.All = append(v.All, v.NonGenerated...)
	v.All = append(v.All, v.Generated...)

	v.TopLevel = []string{}
	for _, p := range v.All {
		if IsTopLevel(p, exts) {
			v.TopLevel = append(v.TopLevel, p)
		}
	}
	return v
}

// IsTopLevel reports whether path's extension, without the dot, is in exts.
// The comparison is case-sensitive.
func IsTopLevel(path string, exts []string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return false
	}
	return slices.Contains(exts, ext)
}

// View names accepted by Select.
const (
	ViewGenerated    = "generated"
	ViewNonGenerated = "non-generated"
	ViewAll          = "all"
	ViewTopLevel     = "top-level"
)

// Select returns the named view.
func (v Views) Select(name string) ([]string, bool) {
	switch name {
	case ViewGenerated:
		return v.Generated, true
	case ViewNonGenerated:
		return v.NonGenerated, true
	case ViewAll:
		return v.All, true
	case ViewTopLevel:
		return v.TopLevel, true
	}
	return nil, false
}
