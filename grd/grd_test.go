package grd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

const generatedResources = `<?xml version="1.0" encoding="UTF-8"?>
<grit latest_public_release="0" current_release="1">
  <release seq="1">
    <messages fallback_to_english="true">
      <part file="chromeos_strings.grdp" />
      <message name="IDS_HELLO" desc="Greeting">Hello from Chromium</message>
      <part file="settings_strings.grdp" />
      <part file="shared/bookmarks_strings.grdp" />
    </messages>
  </release>
</grit>
`

func TestParts_DocumentOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generated_resources.grd")
	writeFile(t, path, generatedResources)

	parts, err := Parts(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"chromeos_strings.grdp",
		"settings_strings.grdp",
		"shared/bookmarks_strings.grdp",
	}, parts)
}

func TestParts_NoPartsReturnsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "components.grd")
	writeFile(t, path, `<grit><release seq="1"><messages/></release></grit>`)

	parts, err := Parts(path)
	require.NoError(t, err)
	assert.NotNil(t, parts)
	assert.Empty(t, parts)
}

func TestParts_KeepsDuplicates(t *testing.T) {
	parts, err := ParseParts(strings.NewReader(`<grit><part file="a.grdp"/><part file="a.grdp"/></grit>`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.grdp", "a.grdp"}, parts)
}

func TestParts_NotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.grd")
	_, err := Parts(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDescriptorNotFound))
	assert.False(t, errors.Is(err, ErrDescriptorParse))
	assert.Contains(t, err.Error(), path)
}

func TestParts_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unclosed element", `<grit><release><part file="a.grdp"/></grit>`},
		{"empty document", ``},
		{"part without file", `<grit><part/></grit>`},
		{"garbage", `this is not markup`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.grd")
			writeFile(t, path, tc.content)

			_, err := Parts(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDescriptorParse), "got %v", err)
			assert.Contains(t, err.Error(), path)
		})
	}
}

func TestPartsRecursive(t *testing.T) {
	dir := t.TempDir()
	top := filepath.Join(dir, "app", "generated_resources.grd")
	writeFile(t, top, `<grit><part file="settings.grdp"/><part file="nested/os.grdp"/><part file="missing.grdp"/></grit>`)
	writeFile(t, filepath.Join(dir, "app", "settings.grdp"), `<grit-part><part file="settings_extra.grdp"/></grit-part>`)
	writeFile(t, filepath.Join(dir, "app", "settings_extra.grdp"), `<grit-part/>`)
	writeFile(t, filepath.Join(dir, "app", "nested", "os.grdp"), `<grit-part><part file="os_sub.grdp"/><part file="../settings.grdp"/></grit-part>`)

	parts, err := PartsRecursive(top, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"settings.grdp",
		"settings_extra.grdp",
		"nested/os.grdp",
		"nested/os_sub.grdp",
		"settings.grdp",
		"missing.grdp",
	}, parts)
}

func TestPartsRecursive_NestedParseErrorNamesNestedFile(t *testing.T) {
	dir := t.TempDir()
	top := filepath.Join(dir, "top.grd")
	bad := filepath.Join(dir, "bad.grdp")
	writeFile(t, top, `<grit><part file="bad.grdp"/></grit>`)
	writeFile(t, bad, `<grit-part>`)

	_, err := PartsRecursive(top, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDescriptorParse))
	assert.Contains(t, err.Error(), bad)
}

func TestPartsRecursive_SkipPrunesSubtree(t *testing.T) {
	dir := t.TempDir()
	top := filepath.Join(dir, "top.grd")
	writeFile(t, top, `<grit><part file="a.grdp"/><part file="chromeos.grdp"/></grit>`)
	writeFile(t, filepath.Join(dir, "a.grdp"), `<grit-part/>`)
	// Malformed on purpose: a skipped satellite must never be parsed.
	writeFile(t, filepath.Join(dir, "chromeos.grdp"), `<grit-part><part file="nested_os.grdp"/>`)

	parts, err := PartsRecursive(top, func(name string) bool { return name == "chromeos.grdp" })
	require.NoError(t, err)
	assert.Equal(t, []string{"a.grdp"}, parts)
}
