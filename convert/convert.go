// Package convert wires the whole cleaning pipeline together: rasterize a PDF
// with poppler, scrub watermark regions on every page, then pack cleaned
// pages into a presentation file.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/deckwash/deckwash/common"
	"github.com/deckwash/deckwash/deck"
	"github.com/deckwash/deckwash/luahook"
	"github.com/deckwash/deckwash/pdfrender"
	"github.com/deckwash/deckwash/watermark"
)

const (
	FormatPptx = "pptx"
	FormatPdf  = "pdf"
	FormatEpub = "epub"
)

var AllOutputFormats = []string{
	FormatPptx,
	FormatPdf,
	FormatEpub,
}

var errFinish = errors.New("task finished")

// Options controls a single document conversion.
type Options struct {
	DPI    int
	Format string
	JobCnt int

	// static watermark regions, used when no region script is given
	Regions []watermark.Region
	// optional per page region hook, overrides Regions
	RegionScript *luahook.RegionScript

	// when non empty, cleaned page images are also saved to this directory
	KeepImageDir    string
	KeepImageFormat string

	// random seed for scrub noise, zero value means time based
	Seed int64
}

// Progress reports pipeline progress, fraction is in [0, 1].
type Progress func(fraction float64, desc string)

// Result describes one finished conversion.
type Result struct {
	OutputName string
	Pages      int
	Info       *pdfrender.Info
	Elapsed    time.Duration
}

// Pipeline converts PDF documents using given renderer.
type Pipeline struct {
	Renderer pdfrender.Renderer
}

// DefaultOutputName derives output file name from input path, in form of
// `<stem>_converted.<format>` placed next to the input file.
func DefaultOutputName(inputName string, format string) string {
	stem := common.StemOf(inputName)
	return filepath.Join(filepath.Dir(inputName), stem+"_converted."+format)
}

// NormalizeOptions fills zero valued fields with defaults and validates the
// rest. Returned options are safe to run with.
func NormalizeOptions(options Options) (Options, error) {
	options.DPI = common.GetIntOr(options.DPI, pdfrender.DefaultDPI)
	if options.DPI < pdfrender.MinDPI || options.DPI > pdfrender.MaxDPI {
		return options, fmt.Errorf("DPI out of range [%d, %d]: %d", pdfrender.MinDPI, pdfrender.MaxDPI, options.DPI)
	}

	options.Format = common.GetStrOr(options.Format, FormatPptx)
	if slices.Index(AllOutputFormats, options.Format) < 0 {
		return options, fmt.Errorf("unsupported output format %q, possible values are: %s", options.Format, strings.Join(AllOutputFormats, ", "))
	}

	options.JobCnt = common.GetIntOr(options.JobCnt, runtime.NumCPU())

	if options.Regions == nil && options.RegionScript == nil {
		options.Regions = []watermark.Region{watermark.DefaultRegion}
	}

	if options.KeepImageDir != "" {
		options.KeepImageFormat = common.GetStrOr(options.KeepImageFormat, common.ImageFormatPng)
		if slices.Index(common.AllImageFormats, options.KeepImageFormat) < 0 {
			return options, fmt.Errorf("unsupported page image format: %q", options.KeepImageFormat)
		}
	}

	return options, nil
}

// Run converts one document. Progress callback may be nil.
func (p *Pipeline) Run(ctx context.Context, inputName, outputName string, options Options, progress Progress) (*Result, error) {
	startedAt := time.Now()

	options, err := NormalizeOptions(options)
	if err != nil {
		return nil, err
	}

	if progress == nil {
		progress = func(float64, string) {}
	}

	progress(0, "probing document")

	info, err := p.Renderer.Info(ctx, inputName)
	if err != nil {
		return nil, err
	}
	if info.Pages == 0 {
		return nil, fmt.Errorf("document contains no pages: %s", inputName)
	}
	if info.Encrypted {
		log.Warnf("document is encrypted, rendering may fail: %s", inputName)
	}

	workDir, err := os.MkdirTemp("", "deckwash-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %s", err)
	}
	defer os.RemoveAll(workDir)

	progress(0, "rendering pages")

	pagePaths, err := p.Renderer.RenderPages(ctx, inputName, workDir, pdfrender.RenderOptions{
		DPI: options.DPI,
	})
	if err != nil {
		return nil, err
	}

	pages, err := scrubPages(pagePaths, &options, progress)
	if err != nil {
		return nil, err
	}

	if options.KeepImageDir != "" {
		if err = dumpPageImages(pages, options.KeepImageDir, options.KeepImageFormat); err != nil {
			return nil, err
		}
	}

	title := common.GetStrOr(info.Title, common.StemOf(inputName))

	switch options.Format {
	case FormatPdf:
		err = packPdf(pages, title, outputName, progress)
	case FormatEpub:
		err = packEpub(pages, title, outputName, workDir, progress)
	default:
		err = packPptx(pages, title, outputName, progress)
	}
	if err != nil {
		return nil, err
	}

	progress(1, "done")

	return &Result{
		OutputName: outputName,
		Pages:      len(pages),
		Info:       info,
		Elapsed:    time.Since(startedAt),
	}, nil
}

// page is one cleaned page held in memory as encoded PNG data.
type page struct {
	index int
	data  []byte
}

type scrubTask struct {
	index int
	path  string
}

type scrubResult struct {
	index int
	data  []byte
	err   error
}

// scrubPages cleans all page images with a worker pool. Scrub phase covers
// the first half of overall progress, pack phase the second half.
func scrubPages(pagePaths []string, options *Options, progress Progress) ([]page, error) {
	jobCnt := options.JobCnt
	taskChan := make(chan scrubTask, jobCnt)
	resultChan := make(chan scrubResult, jobCnt)

	go func() {
		for i, path := range pagePaths {
			taskChan <- scrubTask{index: i, path: path}
		}
		close(taskChan)
	}()

	baseSeed := options.Seed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}

	for i := 0; i < jobCnt; i++ {
		go func() {
			for task := range taskChan {
				data, err := scrubOnePage(task, options, baseSeed)
				resultChan <- scrubResult{
					index: task.index,
					data:  data,
					err:   err,
				}
			}

			resultChan <- scrubResult{err: errFinish}
		}()
	}

	totalCnt := len(pagePaths)
	pages := make([]page, totalCnt)
	finishedCnt := 0
	doneCnt := 0

	// the loop keeps consuming until every worker sends its finish sentinel,
	// even after a failure, so the feeder and workers never stay blocked on
	// channel operations
	var firstErr error
	for result := range resultChan {
		if errors.Is(result.err, errFinish) {
			finishedCnt++
			if finishedCnt >= jobCnt {
				break
			}
			continue
		}

		if result.err != nil {
			if firstErr == nil {
				firstErr = result.err
			}
			continue
		}
		if firstErr != nil {
			continue
		}

		pages[result.index] = page{index: result.index, data: result.data}

		doneCnt++
		progress(float64(doneCnt)/float64(totalCnt)*0.5, fmt.Sprintf("removing watermark: page %d/%d", doneCnt, totalCnt))
	}

	if firstErr != nil {
		return nil, firstErr
	}

	return pages, nil
}

// scrubOnePage loads one rendered page, paints over its watermark regions and
// re-encodes it as PNG. Noise randomness is derived from base seed plus page
// index, so runs with an explicit seed are reproducible regardless of worker
// scheduling.
func scrubOnePage(task scrubTask, options *Options, baseSeed int64) ([]byte, error) {
	file, err := os.Open(task.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page image %s: %s", task.path, err)
	}

	img, _, err := image.Decode(file)
	file.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to decode page image %s: %s", task.path, err)
	}

	rgba := watermark.ToRGBA(img)
	bounds := rgba.Bounds()

	regions := options.Regions
	if options.RegionScript != nil {
		regions, err = options.RegionScript.RegionsFor(task.index+1, bounds.Dx(), bounds.Dy())
		if err != nil {
			return nil, err
		}
	}

	rng := rand.New(rand.NewSource(baseSeed + int64(task.index)))
	watermark.ScrubAll(rgba, regions, rng)

	buf := bytes.NewBuffer(nil)
	if err = png.Encode(buf, rgba); err != nil {
		return nil, fmt.Errorf("failed to encode page %d: %s", task.index+1, err)
	}

	return buf.Bytes(), nil
}

// dumpPageImages saves cleaned pages as standalone image files.
func dumpPageImages(pages []page, outputDir string, format string) error {
	err := os.MkdirAll(outputDir, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create page image directory %s: %s", outputDir, err)
	}

	for _, pg := range pages {
		outputName := filepath.Join(outputDir, common.GetPageOutputBasename(pg.index+1, format))
		if err = common.ConvertImageData(pg.data, outputName, format); err != nil {
			return err
		}
	}

	return nil
}

func packPptx(pages []page, title string, outputName string, progress Progress) error {
	d := deck.New(title)

	totalCnt := len(pages)
	for i, pg := range pages {
		progress(0.5+float64(i)/float64(totalCnt)*0.5, fmt.Sprintf("adding slide %d/%d", i+1, totalCnt))

		if err := d.AddImageSlide(pg.data, "png"); err != nil {
			return err
		}
	}

	if err := d.WriteFile(outputName); err != nil {
		return fmt.Errorf("failed to write presentation %s: %s", outputName, err)
	}

	return nil
}
