package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/deckwash/deckwash/pdfrender"
	"github.com/deckwash/deckwash/watermark"
)

// stubRenderer produces synthetic pages without running poppler.
type stubRenderer struct {
	pages  int
	width  int
	height int
}

func (s *stubRenderer) Info(_ context.Context, _ string) (*pdfrender.Info, error) {
	return &pdfrender.Info{
		Title:        "Stub Document",
		Pages:        s.pages,
		PageWidthPt:  960,
		PageHeightPt: 540,
	}, nil
}

func (s *stubRenderer) RenderPages(_ context.Context, _ string, outputDir string, _ pdfrender.RenderOptions) ([]string, error) {
	var paths []string

	for i := 0; i < s.pages; i++ {
		img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
		for x := 0; x < s.width; x++ {
			for y := 0; y < s.height; y++ {
				img.SetRGBA(x, y, color.RGBA{R: 230, G: 230, B: 230, A: 255})
			}
		}

		buf := bytes.NewBuffer(nil)
		if err := png.Encode(buf, img); err != nil {
			return nil, err
		}

		path := filepath.Join(outputDir, fmt.Sprintf("page-%02d.png", i+1))
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func TestPipelineRunPptx(t *testing.T) {
	pipeline := &Pipeline{Renderer: &stubRenderer{pages: 3, width: 160, height: 90}}

	outputName := filepath.Join(t.TempDir(), "out.pptx")

	var lastFraction float64
	result, err := pipeline.Run(context.Background(), "input.pdf", outputName, Options{
		JobCnt: 2,
		Seed:   1,
	}, func(fraction float64, _ string) {
		if fraction < lastFraction {
			t.Errorf("progress went backwards: %f -> %f", lastFraction, fraction)
		}
		lastFraction = fraction
	})
	if err != nil {
		t.Fatalf("pipeline failed: %s", err)
	}

	if result.Pages != 3 {
		t.Errorf("pages: %d", result.Pages)
	}
	if lastFraction != 1 {
		t.Errorf("final progress fraction: %f", lastFraction)
	}

	reader, err := zip.OpenReader(outputName)
	if err != nil {
		t.Fatalf("output is not a ZIP archive: %s", err)
	}
	defer reader.Close()

	for i := 1; i <= 3; i++ {
		name := fmt.Sprintf("ppt/slides/slide%d.xml", i)
		if _, err := reader.Open(name); err != nil {
			t.Errorf("missing slide part: %s", name)
		}
	}
}

func TestPipelineRunPdf(t *testing.T) {
	pipeline := &Pipeline{Renderer: &stubRenderer{pages: 2, width: 160, height: 90}}

	outputName := filepath.Join(t.TempDir(), "out.pdf")

	_, err := pipeline.Run(context.Background(), "input.pdf", outputName, Options{
		Format: FormatPdf,
		JobCnt: 1,
		Seed:   1,
	}, nil)
	if err != nil {
		t.Fatalf("pipeline failed: %s", err)
	}

	data, err := os.ReadFile(outputName)
	if err != nil {
		t.Fatalf("failed to read output: %s", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("output has no PDF magic")
	}
}

func TestPipelineDumpsPageImages(t *testing.T) {
	pipeline := &Pipeline{Renderer: &stubRenderer{pages: 2, width: 64, height: 36}}

	tempDir := t.TempDir()
	pageDir := filepath.Join(tempDir, "pages")

	_, err := pipeline.Run(context.Background(), "input.pdf", filepath.Join(tempDir, "out.pptx"), Options{
		JobCnt:          1,
		Seed:            1,
		KeepImageDir:    pageDir,
		KeepImageFormat: "jpeg",
	}, nil)
	if err != nil {
		t.Fatalf("pipeline failed: %s", err)
	}

	for i := 1; i <= 2; i++ {
		name := filepath.Join(pageDir, fmt.Sprintf("page-%04d.jpeg", i))
		if _, err := os.Stat(name); err != nil {
			t.Errorf("missing page dump: %s", name)
		}
	}
}

// brokenPageRenderer emits page files that are not decodable images.
type brokenPageRenderer struct {
	pages int
}

func (s *brokenPageRenderer) Info(_ context.Context, _ string) (*pdfrender.Info, error) {
	return &pdfrender.Info{Pages: s.pages}, nil
}

func (s *brokenPageRenderer) RenderPages(_ context.Context, _ string, outputDir string, _ pdfrender.RenderOptions) ([]string, error) {
	var paths []string

	for i := 0; i < s.pages; i++ {
		path := filepath.Join(outputDir, fmt.Sprintf("page-%02d.png", i+1))
		if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func TestPipelineFailureLeavesNoWorkers(t *testing.T) {
	before := runtime.NumGoroutine()

	pipeline := &Pipeline{Renderer: &brokenPageRenderer{pages: 64}}

	_, err := pipeline.Run(context.Background(), "input.pdf", filepath.Join(t.TempDir(), "out.pptx"), Options{
		JobCnt: 4,
		Seed:   1,
	}, nil)
	if err == nil {
		t.Fatalf("expecting error for undecodable pages")
	}

	// pool goroutines must all have drained and exited by now, give the
	// scheduler a moment before comparing counts
	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if after := runtime.NumGoroutine(); after > before {
		t.Errorf("%d goroutines alive after failed conversion, started with %d", after, before)
	}
}

func TestPipelineRejectsEmptyDocument(t *testing.T) {
	pipeline := &Pipeline{Renderer: &stubRenderer{pages: 0}}

	_, err := pipeline.Run(context.Background(), "input.pdf", "out.pptx", Options{}, nil)
	if err == nil {
		t.Errorf("expecting error for document with no pages")
	}
}

func TestNormalizeOptions(t *testing.T) {
	options, err := NormalizeOptions(Options{})
	if err != nil {
		t.Fatalf("defaults should normalize: %s", err)
	}
	if options.DPI != pdfrender.DefaultDPI {
		t.Errorf("DPI: %d", options.DPI)
	}
	if options.Format != FormatPptx {
		t.Errorf("format: %q", options.Format)
	}
	if options.JobCnt <= 0 {
		t.Errorf("job count: %d", options.JobCnt)
	}
	if len(options.Regions) != 1 || options.Regions[0] != watermark.DefaultRegion {
		t.Errorf("regions: %v", options.Regions)
	}

	if _, err := NormalizeOptions(Options{DPI: 20}); err == nil {
		t.Errorf("expecting error for too small DPI")
	}
	if _, err := NormalizeOptions(Options{Format: "docx"}); err == nil {
		t.Errorf("expecting error for unsupported format")
	}
	if _, err := NormalizeOptions(Options{KeepImageDir: "x", KeepImageFormat: "raw"}); err == nil {
		t.Errorf("expecting error for unsupported page image format")
	}
}

func TestDefaultOutputName(t *testing.T) {
	got := DefaultOutputName(filepath.Join("docs", "slides.pdf"), FormatPptx)
	want := filepath.Join("docs", "slides_converted.pptx")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
