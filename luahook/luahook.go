// Package luahook runs user provided Lua scripts that decide watermark
// regions for each page. A script defines a global function
//
//	function regions(page, width, height)
//	    return { { width = 150, height = 35, anchor = "bottom-right" } }
//	end
//
// which is called with 1-based page index and page pixel size.
package luahook

import (
	"fmt"
	"sync"

	"github.com/deckwash/deckwash/watermark"
	lua "github.com/yuin/gopher-lua"
)

const regionFuncName = "regions"

// RegionScript wraps a loaded Lua state. A single Lua state is not safe for
// concurrent use, calls are serialized with a mutex.
type RegionScript struct {
	mu    sync.Mutex
	state *lua.LState
}

// LoadRegionScript reads and executes given script file, then checks the
// region function is defined.
func LoadRegionScript(path string) (*RegionScript, error) {
	state := lua.NewState()

	if err := state.DoFile(path); err != nil {
		state.Close()
		return nil, fmt.Errorf("failed to load region script %s: %s", path, err)
	}

	fn := state.GetGlobal(regionFuncName)
	if _, ok := fn.(*lua.LFunction); !ok {
		state.Close()
		return nil, fmt.Errorf("region script %s defines no function %q", path, regionFuncName)
	}

	return &RegionScript{state: state}, nil
}

// Close releases the underlying Lua state.
func (s *RegionScript) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != nil {
		s.state.Close()
		s.state = nil
	}
}

// RegionsFor calls the script's region function for one page.
func (s *RegionScript) RegionsFor(page int, width int, height int) ([]watermark.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return nil, fmt.Errorf("region script is closed")
	}

	state := s.state
	err := state.CallByParam(lua.P{
		Fn:      state.GetGlobal(regionFuncName),
		NRet:    1,
		Protect: true,
	}, lua.LNumber(page), lua.LNumber(width), lua.LNumber(height))
	if err != nil {
		return nil, fmt.Errorf("region script failed on page %d: %s", page, err)
	}

	ret := state.Get(-1)
	state.Pop(1)

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("region script returned %s on page %d, expecting a table", ret.Type(), page)
	}

	return regionsFromTable(tbl, page)
}

func regionsFromTable(tbl *lua.LTable, page int) ([]watermark.Region, error) {
	var regions []watermark.Region
	var convErr error

	tbl.ForEach(func(_, value lua.LValue) {
		if convErr != nil {
			return
		}

		entry, ok := value.(*lua.LTable)
		if !ok {
			convErr = fmt.Errorf("region entry on page %d is %s, expecting a table", page, value.Type())
			return
		}

		region, err := regionFromEntry(entry)
		if err != nil {
			convErr = fmt.Errorf("page %d: %s", page, err)
			return
		}

		regions = append(regions, region)
	})

	if convErr != nil {
		return nil, convErr
	}

	return regions, nil
}

func regionFromEntry(entry *lua.LTable) (watermark.Region, error) {
	region := watermark.Region{Anchor: watermark.AnchorBottomRight}

	width, ok := entry.RawGetString("width").(lua.LNumber)
	if !ok || int(width) <= 0 {
		return region, fmt.Errorf("region entry has no positive width field")
	}
	region.Width = int(width)

	height, ok := entry.RawGetString("height").(lua.LNumber)
	if !ok || int(height) <= 0 {
		return region, fmt.Errorf("region entry has no positive height field")
	}
	region.Height = int(height)

	if anchor, ok := entry.RawGetString("anchor").(lua.LString); ok {
		parsed, err := watermark.ParseRegion(fmt.Sprintf("%dx%d@%s", region.Width, region.Height, string(anchor)))
		if err != nil {
			return region, err
		}
		region = parsed
	}

	return region, nil
}
