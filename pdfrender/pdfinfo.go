package pdfrender

import (
	"fmt"
	"strconv"
	"strings"
)

// Info holds document metadata reported by pdfinfo.
type Info struct {
	Title     string
	Pages     int
	Encrypted bool

	// page size in PostScript points, 72 points per inch
	PageWidthPt  float64
	PageHeightPt float64

	PDFVersion string
}

// parseInfoOutput extracts document metadata from pdfinfo standard output.
// Unknown lines are skipped, only a missing page count is treated as error.
func parseInfoOutput(output string) (*Info, error) {
	info := &Info{Pages: -1}

	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch key {
		case "Title":
			info.Title = value
		case "Pages":
			cnt, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid page count %q: %s", value, err)
			}
			info.Pages = cnt
		case "Encrypted":
			info.Encrypted = strings.HasPrefix(value, "yes")
		case "Page size":
			width, height, err := parsePageSize(value)
			if err != nil {
				return nil, err
			}
			info.PageWidthPt = width
			info.PageHeightPt = height
		case "PDF version":
			info.PDFVersion = value
		}
	}

	if info.Pages < 0 {
		return nil, fmt.Errorf("no page count in pdfinfo output")
	}

	return info, nil
}

// parsePageSize reads a size value in form of `612 x 792 pts (letter)`.
func parsePageSize(value string) (float64, float64, error) {
	fields := strings.Fields(value)
	if len(fields) < 3 || fields[1] != "x" {
		return 0, 0, fmt.Errorf("unrecognized page size value: %q", value)
	}

	width, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid page width %q: %s", fields[0], err)
	}

	height, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid page height %q: %s", fields[2], err)
	}

	return width, height, nil
}
