package luahook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/deckwash/deckwash/watermark"
)

func writeScript(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "regions.lua")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write script fixture: %s", err)
	}

	return path
}

func TestRegionsFor(t *testing.T) {
	path := writeScript(t, `
		function regions(page, width, height)
			if page == 1 then
				return {
					{ width = 100, height = 40, anchor = "top-left" },
					{ width = 150, height = 35 },
				}
			end
			return {}
		end
	`)

	script, err := LoadRegionScript(path)
	if err != nil {
		t.Fatalf("failed to load script: %s", err)
	}
	defer script.Close()

	regions, err := script.RegionsFor(1, 800, 450)
	if err != nil {
		t.Fatalf("script call failed: %s", err)
	}

	if len(regions) != 2 {
		t.Fatalf("region count: %d", len(regions))
	}
	if regions[0].Anchor != watermark.AnchorTopLeft || regions[0].Width != 100 {
		t.Errorf("first region: %+v", regions[0])
	}
	if regions[1].Anchor != watermark.AnchorBottomRight {
		t.Errorf("anchor should default to bottom-right: %+v", regions[1])
	}

	regions, err = script.RegionsFor(2, 800, 450)
	if err != nil {
		t.Fatalf("script call failed: %s", err)
	}
	if len(regions) != 0 {
		t.Errorf("page 2 should have no region: %v", regions)
	}
}

func TestLoadRegionScriptMissingFunction(t *testing.T) {
	path := writeScript(t, `local x = 1`)

	if _, err := LoadRegionScript(path); err == nil {
		t.Errorf("expecting error for script with no region function")
	}
}

func TestRegionsForBadReturn(t *testing.T) {
	path := writeScript(t, `
		function regions(page, width, height)
			return 42
		end
	`)

	script, err := LoadRegionScript(path)
	if err != nil {
		t.Fatalf("failed to load script: %s", err)
	}
	defer script.Close()

	if _, err := script.RegionsFor(1, 100, 100); err == nil {
		t.Errorf("expecting error for non table return value")
	}
}

func TestRegionsForBadEntry(t *testing.T) {
	path := writeScript(t, `
		function regions(page, width, height)
			return { { height = 10 } }
		end
	`)

	script, err := LoadRegionScript(path)
	if err != nil {
		t.Fatalf("failed to load script: %s", err)
	}
	defer script.Close()

	if _, err := script.RegionsFor(1, 100, 100); err == nil {
		t.Errorf("expecting error for entry with no width")
	}
}
