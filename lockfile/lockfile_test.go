package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestHashDeterministic(t *testing.T) {
	h1 := Hash("hello world")
	h2 := Hash("hello world")
	if h1 != h2 {
		t.Errorf("Hash not deterministic: %s != %s", h1, h2)
	}
	h3 := Hash("different")
	if h1 == h3 {
		t.Errorf("Hash collision: %s == %s", h1, h3)
	}
}

func TestLoadNonExistent(t *testing.T) {
	lf, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error for non-existent file: %v", err)
	}
	if lf.Version != Version {
		t.Errorf("Version = %d, want %d", lf.Version, Version)
	}
	if len(lf.Checksums) != 0 {
		t.Errorf("Checksums not empty: %v", lf.Checksums)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	lf, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	lf.Update(filepath.Join(dir, "app", "brave_strings.grd"), "Chromium")
	lf.Update(filepath.Join(dir, "app", "settings_brave_strings.grdp"), "Chrome")

	if err := lf.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path := filepath.Join(dir, LockFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Lock file not created at %s", path)
	}

	lf2, err := Load(dir)
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}
	if lf2.Len() != 2 {
		t.Errorf("Len = %d, want 2", lf2.Len())
	}
	if lf2.IsChanged(filepath.Join(dir, "app", "brave_strings.grd"), "Chromium") {
		t.Error("reloaded entry should not be changed")
	}
	if _, ok := lf2.Checksums["app/brave_strings.grd"]; !ok {
		t.Errorf("keys should be relative to the lock directory, got %v", lf2.Keys())
	}
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, LockFileName), []byte("version: 9\nchecksums: {}\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("Load should reject an unknown version")
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, LockFileName), []byte("checksums: [unterminated"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("Load should fail on malformed YAML")
	}
}

func TestIsChanged(t *testing.T) {
	lf, _ := Load(t.TempDir())

	if !lf.IsChanged("/src/brave/a.grd", "Hello") {
		t.Error("new entry should be changed")
	}

	lf.Update("/src/brave/a.grd", "Hello")
	if lf.IsChanged("/src/brave/a.grd", "Hello") {
		t.Error("unchanged entry should not be changed")
	}
	if !lf.IsChanged("/src/brave/a.grd", "Hello!") {
		t.Error("modified entry should be changed")
	}
	if !lf.IsChanged("/src/brave/b.grd", "Hello") {
		t.Error("different path should be changed")
	}
}

func TestKey(t *testing.T) {
	lf := &LockFile{dir: "/src/brave"}
	tests := []struct {
		path, want string
	}{
		{"/src/brave/app/brave_strings.grd", "app/brave_strings.grd"},
		{"/src/chrome/app/chromium_strings.grd", "/src/chrome/app/chromium_strings.grd"},
		{"/src/brave/..cache/x.grd", "..cache/x.grd"},
		{"/src", "/src"},
	}
	for _, tt := range tests {
		if got := lf.Key(tt.path); got != tt.want {
			t.Errorf("Key(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestClean(t *testing.T) {
	lf, _ := Load(t.TempDir())

	lf.Update("/d/a.grd", "a")
	lf.Update("/d/b.grd", "b")
	lf.Update("/d/gone.grdp", "c")

	if n := lf.Clean([]string{"/d/a.grd", "/d/b.grd"}); n != 1 {
		t.Errorf("Clean removed %d, want 1", n)
	}
	if lf.IsChanged("/d/a.grd", "a") {
		t.Error("a.grd should still be tracked")
	}
	if !lf.IsChanged("/d/gone.grdp", "c") {
		t.Error("gone.grdp should be removed by Clean")
	}
}

func TestRemoveAndKeys(t *testing.T) {
	lf, _ := Load(t.TempDir())
	lf.Update("/d/c.grd", "x")
	lf.Update("/d/a.grd", "x")
	lf.Update("/d/b.grd", "x")
	lf.Remove("/d/b.grd")

	keys := lf.Keys()
	expected := []string{"/d/a.grd", "/d/c.grd"}
	if len(keys) != len(expected) {
		t.Fatalf("keys len = %d, want %d", len(keys), len(expected))
	}
	for i, want := range expected {
		if keys[i] != want {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want)
		}
	}
}

func TestSummary(t *testing.T) {
	lf, _ := Load(t.TempDir())
	if lf.Summary() != "empty" {
		t.Errorf("empty summary = %q, want %q", lf.Summary(), "empty")
	}
	lf.Update("/d/a.grd", "x")
	if lf.Summary() != "1 file" {
		t.Errorf("summary = %q, want %q", lf.Summary(), "1 file")
	}
	lf.Update("/d/b.grd", "x")
	if lf.Summary() != "2 files" {
		t.Errorf("summary = %q, want %q", lf.Summary(), "2 files")
	}
}

func TestSaveWithoutPath(t *testing.T) {
	lf := &LockFile{Version: Version, Checksums: map[string]string{}}
	if err := lf.Save(); err == nil {
		t.Fatal("Save without a path should fail")
	}
}

func TestConcurrentAccess(t *testing.T) {
	lf, _ := Load(t.TempDir())

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func(n int) {
			path := fmt.Sprintf("/d/file%d.grdp", n)
			lf.Update(path, "value")
			lf.IsChanged(path, "value")
			lf.Len()
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	if n := lf.Len(); n != 10 {
		t.Errorf("entries after concurrent writes = %d, want 10", n)
	}
}
