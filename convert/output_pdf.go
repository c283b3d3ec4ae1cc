package convert

import (
	"fmt"

	"github.com/signintech/gopdf"
)

// PDF page geometry in PostScript points, matching the 10in x 5.625in slide
// size used for PPTX output.
const (
	pdfPageWidthPt  = 720
	pdfPageHeightPt = 405
)

// packPdf bundles cleaned pages back into a PDF document, one full bleed
// image per page.
func packPdf(pages []page, title string, outputName string, progress Progress) error {
	pageRect := gopdf.Rect{W: pdfPageWidthPt, H: pdfPageHeightPt}

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: pageRect})
	pdf.SetInfo(gopdf.PdfInfo{Title: title})

	totalCnt := len(pages)
	for i, pg := range pages {
		progress(0.5+float64(i)/float64(totalCnt)*0.5, fmt.Sprintf("adding page %d/%d", i+1, totalCnt))

		holder, err := gopdf.ImageHolderByBytes(pg.data)
		if err != nil {
			return fmt.Errorf("failed to load page %d image: %s", i+1, err)
		}

		pdf.AddPage()
		if err = pdf.ImageByHolder(holder, 0, 0, &pageRect); err != nil {
			return fmt.Errorf("failed to place page %d image: %s", i+1, err)
		}
	}

	if err := pdf.WritePdf(outputName); err != nil {
		return fmt.Errorf("failed to write file %s: %s", outputName, err)
	}

	return nil
}
