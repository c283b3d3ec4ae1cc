package library

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir string, content string) string {
	t.Helper()

	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write manifest fixture: %s", err)
	}

	return path
}

func TestReadLibraryInfo(t *testing.T) {
	dir := t.TempDir()

	path := writeManifest(t, dir, `{
		"output_name": "out",
		"dpi": 150,
		"format": "pdf",
		"region": "100x20",
		"documents": [
			{ "input": "a.pdf" },
			{ "input": "b.pdf", "dpi": 200, "format": "pptx", "output": "custom/b.pptx" }
		]
	}`)

	info, err := ReadLibraryInfo(path)
	if err != nil {
		t.Fatalf("failed to read manifest: %s", err)
	}

	if info.RootDir != dir {
		t.Errorf("root dir: %q", info.RootDir)
	}
	if len(info.Documents) != 2 {
		t.Fatalf("document count: %d", len(info.Documents))
	}

	first := info.Documents[0]
	if first.Input != filepath.Join(dir, "a.pdf") {
		t.Errorf("input: %q", first.Input)
	}
	if first.DPI != 150 || first.Format != "pdf" || first.Region != "100x20" {
		t.Errorf("defaults not applied: %+v", first)
	}
	if first.Output != filepath.Join(dir, "out", "a_converted.pdf") {
		t.Errorf("derived output: %q", first.Output)
	}

	second := info.Documents[1]
	if second.DPI != 200 || second.Format != "pptx" {
		t.Errorf("overrides not kept: %+v", second)
	}
	if second.Output != filepath.Join(dir, "custom", "b.pptx") {
		t.Errorf("output: %q", second.Output)
	}
}

func TestReadLibraryInfoRequiresInput(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `{"documents": [{}]}`)

	if _, err := ReadLibraryInfo(path); err == nil {
		t.Errorf("expecting error for document with no input")
	}
}

func TestReadLibraryInfoPageDirs(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `{
		"page_name": "pages",
		"documents": [{ "input": "deck.pdf" }]
	}`)

	info, err := ReadLibraryInfo(path)
	if err != nil {
		t.Fatalf("failed to read manifest: %s", err)
	}

	want := filepath.Join(dir, "pages", "deck")
	if info.Documents[0].PageDir != want {
		t.Errorf("page dir: %q, want %q", info.Documents[0].PageDir, want)
	}
}

func TestSaveFileRoundTrip(t *testing.T) {
	dir := t.TempDir()

	info := &LibraryInfo{
		RootDir: dir,
		Format:  "pptx",
		Documents: []DocumentInfo{
			{Input: filepath.Join(dir, "a.pdf")},
		},
	}

	path := filepath.Join(dir, "saved.json")
	if err := info.SaveFile(path); err != nil {
		t.Fatalf("failed to save manifest: %s", err)
	}

	loaded, err := ReadLibraryInfo(path)
	if err != nil {
		t.Fatalf("failed to reload manifest: %s", err)
	}
	if len(loaded.Documents) != 1 || loaded.Documents[0].Input != info.Documents[0].Input {
		t.Errorf("round trip mismatch: %+v", loaded.Documents)
	}
}
