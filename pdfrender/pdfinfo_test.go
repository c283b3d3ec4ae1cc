package pdfrender

import (
	"testing"
)

const sampleInfoOutput = `Title:           Quarterly Review
Subject:
Keywords:
Author:
Creator:         Impress
Producer:        LibreOffice 7.4
CreationDate:    Tue Mar  5 10:12:44 2024 UTC
Custom Metadata: no
Metadata Stream: no
Tagged:          no
UserProperties:  no
Suspects:        no
Form:            none
JavaScript:      no
Pages:           12
Encrypted:       no
Page size:       960 x 540 pts
Page rot:        0
File size:       1048576 bytes
Optimized:       no
PDF version:     1.6
`

func TestParseInfoOutput(t *testing.T) {
	info, err := parseInfoOutput(sampleInfoOutput)
	if err != nil {
		t.Fatalf("failed to parse pdfinfo output: %s", err)
	}

	if info.Title != "Quarterly Review" {
		t.Errorf("title: %q", info.Title)
	}
	if info.Pages != 12 {
		t.Errorf("pages: %d", info.Pages)
	}
	if info.Encrypted {
		t.Errorf("document should not be encrypted")
	}
	if info.PageWidthPt != 960 || info.PageHeightPt != 540 {
		t.Errorf("page size: %f x %f", info.PageWidthPt, info.PageHeightPt)
	}
	if info.PDFVersion != "1.6" {
		t.Errorf("PDF version: %q", info.PDFVersion)
	}
}

func TestParseInfoOutputEncrypted(t *testing.T) {
	output := "Pages:           3\nEncrypted:       yes (print:yes copy:no change:no addNotes:no algorithm:AES)\n"

	info, err := parseInfoOutput(output)
	if err != nil {
		t.Fatalf("failed to parse pdfinfo output: %s", err)
	}

	if !info.Encrypted {
		t.Errorf("document should be encrypted")
	}
}

func TestParseInfoOutputMissingPages(t *testing.T) {
	if _, err := parseInfoOutput("Title: whatever\n"); err == nil {
		t.Errorf("expecting error when page count is missing")
	}
}

func TestParsePageSize(t *testing.T) {
	width, height, err := parsePageSize("612 x 792 pts (letter)")
	if err != nil {
		t.Fatalf("failed to parse page size: %s", err)
	}
	if width != 612 || height != 792 {
		t.Errorf("got %f x %f", width, height)
	}

	if _, _, err := parsePageSize("nonsense"); err == nil {
		t.Errorf("expecting error for malformed size")
	}
}
