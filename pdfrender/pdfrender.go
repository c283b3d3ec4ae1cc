// Package pdfrender rasterizes PDF pages by driving the poppler command line
// tools. pdfinfo provides document metadata, pdftoppm renders page images.
package pdfrender

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
)

const (
	MinDPI     = 72
	MaxDPI     = 600
	DefaultDPI = 100
)

const (
	pdfinfoBin  = "pdfinfo"
	pdftoppmBin = "pdftoppm"
)

// RenderOptions controls page rasterization.
type RenderOptions struct {
	DPI int

	// 1-based page range, zero value means whole document
	FirstPage int
	LastPage  int
}

// Renderer turns a PDF document into per page raster images.
type Renderer interface {
	Info(ctx context.Context, pdfPath string) (*Info, error)
	RenderPages(ctx context.Context, pdfPath string, outputDir string, options RenderOptions) ([]string, error)
}

// Poppler implements Renderer with poppler-utils binaries found on PATH.
type Poppler struct {
	// binary name overrides, empty value means default name
	InfoBin   string
	RenderBin string
}

// Check reports whether both poppler binaries are resolvable on PATH.
func (p *Poppler) Check() error {
	for _, bin := range []string{p.infoBin(), p.renderBin()} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("poppler tool not found on PATH: %s", bin)
		}
	}

	return nil
}

func (p *Poppler) infoBin() string {
	if p.InfoBin != "" {
		return p.InfoBin
	}
	return pdfinfoBin
}

func (p *Poppler) renderBin() string {
	if p.RenderBin != "" {
		return p.RenderBin
	}
	return pdftoppmBin
}

// Info runs pdfinfo against given document and parses its output.
func (p *Poppler) Info(ctx context.Context, pdfPath string) (*Info, error) {
	cmd := exec.CommandContext(ctx, p.infoBin(), pdfPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdfinfo failed for %s: %s (%s)", pdfPath, err, bytes.TrimSpace(stderr.Bytes()))
	}

	info, err := parseInfoOutput(stdout.String())
	if err != nil {
		return nil, fmt.Errorf("can't read pdfinfo output for %s: %s", pdfPath, err)
	}

	return info, nil
}

// RenderPages rasterizes pages of given document as PNG files under outputDir.
// Returned paths are sorted in page order.
func (p *Poppler) RenderPages(ctx context.Context, pdfPath string, outputDir string, options RenderOptions) ([]string, error) {
	dpi := options.DPI
	if dpi == 0 {
		dpi = DefaultDPI
	}
	if dpi < MinDPI || dpi > MaxDPI {
		return nil, fmt.Errorf("DPI out of range [%d, %d]: %d", MinDPI, MaxDPI, dpi)
	}

	prefix := filepath.Join(outputDir, "page")

	args := []string{"-png", "-r", strconv.Itoa(dpi)}
	if options.FirstPage > 0 {
		args = append(args, "-f", strconv.Itoa(options.FirstPage))
	}
	if options.LastPage > 0 {
		args = append(args, "-l", strconv.Itoa(options.LastPage))
	}
	args = append(args, pdfPath, prefix)

	cmd := exec.CommandContext(ctx, p.renderBin(), args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed for %s: %s (%s)", pdfPath, err, bytes.TrimSpace(stderr.Bytes()))
	}

	pages, err := collectPageFiles(prefix)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("document rendered to no pages: %s", pdfPath)
	}

	return pages, nil
}

// collectPageFiles globs page images written by pdftoppm. pdftoppm pads page
// numbers in file names to equal width, so plain string sort keeps page order.
func collectPageFiles(prefix string) ([]string, error) {
	pages, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to list rendered pages: %s", err)
	}

	sort.Strings(pages)

	return pages, nil
}
