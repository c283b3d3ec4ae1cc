// Package deck writes PPTX presentation files with one full bleed picture per
// slide. The package builds the OOXML container directly: a ZIP archive with
// content type declarations, relationship parts and one XML part per slide.
package deck

import (
	"archive/zip"
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/flate"
)

// EMUPerInch is the OOXML length unit, English Metric Units per inch.
const EMUPerInch = 914400

// Default slide geometry, 16:9.
const (
	DefaultSlideWidthInch  = 10
	DefaultSlideHeightInch = 5.625
)

const (
	imageFormatPng  = "png"
	imageFormatJpeg = "jpeg"
)

type slide struct {
	imageData []byte
	imageExt  string
}

// Deck collects page images and writes them out as a PPTX file.
type Deck struct {
	title string

	slideWidthEMU  int64
	slideHeightEMU int64

	slides []slide
}

// New creates an empty deck with default 16:9 slide size.
func New(title string) *Deck {
	deck := &Deck{title: title}
	deck.SetSlideSize(DefaultSlideWidthInch, DefaultSlideHeightInch)

	return deck
}

// SetSlideSize updates slide geometry, both values are in inch.
func (d *Deck) SetSlideSize(widthInch, heightInch float64) {
	d.slideWidthEMU = int64(widthInch * EMUPerInch)
	d.slideHeightEMU = int64(heightInch * EMUPerInch)
}

// AddImageSlide appends a slide holding given encoded image stretched over
// the whole slide. Only PNG and JPEG data can be embedded.
func (d *Deck) AddImageSlide(imageData []byte, format string) error {
	switch format {
	case imageFormatPng, imageFormatJpeg:
		// pass
	default:
		return fmt.Errorf("unsupported slide image format: %q", format)
	}

	if len(imageData) == 0 {
		return fmt.Errorf("empty image data for slide %d", len(d.slides)+1)
	}

	d.slides = append(d.slides, slide{
		imageData: imageData,
		imageExt:  format,
	})

	return nil
}

// SlideCount returns number of slides added so far.
func (d *Deck) SlideCount() int {
	return len(d.slides)
}

// WriteFile saves the deck to disk.
func (d *Deck) WriteFile(outputName string) error {
	file, err := os.Create(outputName)
	if err != nil {
		return fmt.Errorf("failed to create output file: %s", err)
	}
	defer file.Close()

	bufWriter := bufio.NewWriter(file)
	defer bufWriter.Flush()

	return d.Write(bufWriter)
}

// Write serializes the deck as a PPTX package. Writing an empty deck is an
// error, a presentation needs at least one slide.
func (d *Deck) Write(w io.Writer) error {
	if len(d.slides) == 0 {
		return fmt.Errorf("deck contains no slides")
	}

	zipWriter := zip.NewWriter(w)
	zipWriter.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})

	parts := []struct {
		name string
		data func() []byte
	}{
		{"[Content_Types].xml", d.contentTypesXML},
		{"_rels/.rels", packageRelsXML},
		{"docProps/core.xml", d.corePropsXML},
		{"docProps/app.xml", d.appPropsXML},
		{"ppt/presentation.xml", d.presentationXML},
		{"ppt/_rels/presentation.xml.rels", d.presentationRelsXML},
		{"ppt/slideMasters/slideMaster1.xml", slideMasterXML},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRelsXML},
		{"ppt/slideLayouts/slideLayout1.xml", slideLayoutXML},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRelsXML},
		{"ppt/theme/theme1.xml", themeXML},
	}

	for _, part := range parts {
		if err := writeZipEntry(zipWriter, part.name, part.data()); err != nil {
			return err
		}
	}

	for i := range d.slides {
		num := i + 1

		name := fmt.Sprintf("ppt/slides/slide%d.xml", num)
		if err := writeZipEntry(zipWriter, name, d.slideXML(num)); err != nil {
			return err
		}

		name = fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", num)
		if err := writeZipEntry(zipWriter, name, d.slideRelsXML(num)); err != nil {
			return err
		}

		name = fmt.Sprintf("ppt/media/image%d.%s", num, d.slides[i].imageExt)
		if err := writeZipEntry(zipWriter, name, d.slides[i].imageData); err != nil {
			return err
		}
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %s", err)
	}

	return nil
}

func writeZipEntry(zipWriter *zip.Writer, name string, data []byte) error {
	entry, err := zipWriter.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create archive entry %s: %s", name, err)
	}

	if _, err = entry.Write(data); err != nil {
		return fmt.Errorf("failed to write archive entry %s: %s", name, err)
	}

	return nil
}

var nowFunc = time.Now
