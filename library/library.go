// Package library reads batch conversion manifests. A manifest is a JSON file
// listing documents to convert with shared defaults that every entry can
// override.
package library

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/deckwash/deckwash/common"
)

// LibraryInfo represents information about a batch conversion manifest.
type LibraryInfo struct {
	RootDir       string `json:"root"`        // root directory of the library, relative paths resolve against it
	OutputDirName string `json:"output_name"` // directory for converted files, if not specified by document entry
	PageDirName   string `json:"page_name"`   // directory for cleaned page image dumps, empty means no dump

	DPI    int    `json:"dpi"`    // default render DPI for all documents
	Format string `json:"format"` // default output format for all documents
	Region string `json:"region"` // default watermark region for all documents

	Documents []DocumentInfo `json:"documents"` // a list of document info
}

// DocumentInfo is one conversion target inside a manifest.
type DocumentInfo struct {
	Input  string `json:"input"`  // path of source PDF
	Output string `json:"output"` // output file path, empty value derives name from input

	DPI          int    `json:"dpi"`
	Format       string `json:"format"`
	Region       string `json:"region"`
	RegionScript string `json:"region_script"` // per page region Lua script path
	PageDir      string `json:"page_dir"`      // cleaned page image dump directory
}

// ReadLibraryInfo loads a manifest file, fills defaults and resolves all
// relative paths against the library root.
func ReadLibraryInfo(infoPath string) (*LibraryInfo, error) {
	data, err := os.ReadFile(infoPath)
	if err != nil {
		return nil, fmt.Errorf("can't read manifest file %s: %s", infoPath, err)
	}

	info := &LibraryInfo{}
	if err := json.Unmarshal(data, info); err != nil {
		return nil, fmt.Errorf("unable to parse manifest data in %s: %s", infoPath, err)
	}

	info.SetupDefaultValues(filepath.Dir(infoPath))

	for i := range info.Documents {
		doc := &info.Documents[i]

		if doc.Input == "" {
			return nil, fmt.Errorf("document %d contains no input path", i)
		}
		doc.Input = common.ResolveRelativePath(doc.Input, info.RootDir)

		doc.DPI = common.GetIntOr(doc.DPI, info.DPI)
		doc.Format = common.GetStrOr(doc.Format, info.Format)
		doc.Region = common.GetStrOr(doc.Region, info.Region)

		doc.RegionScript = common.ResolveRelativePath(doc.RegionScript, info.RootDir)

		if doc.Output == "" && info.OutputDirName != "" {
			stem := common.StemOf(doc.Input)
			doc.Output = filepath.Join(info.OutputDirName, stem+"_converted."+doc.Format)
		}
		doc.Output = common.ResolveRelativePath(doc.Output, info.RootDir)

		doc.PageDir = common.GetStrOr(doc.PageDir, pageDirFor(info, doc))
		doc.PageDir = common.ResolveRelativePath(doc.PageDir, info.RootDir)
	}

	return info, nil
}

// pageDirFor returns per document page dump directory under library wide page
// directory. Empty library value disables dumping.
func pageDirFor(info *LibraryInfo, doc *DocumentInfo) string {
	if info.PageDirName == "" {
		return ""
	}

	return filepath.Join(info.PageDirName, common.StemOf(doc.Input))
}

// SetupDefaultValues sets necessary default values for LibraryInfo fields if
// them are still zero value of their type.
func (info *LibraryInfo) SetupDefaultValues(manifestDir string) {
	if info.RootDir == "" {
		info.RootDir = manifestDir
	}

	if info.Format == "" {
		info.Format = "pptx"
	}

	if info.Documents == nil {
		info.Documents = []DocumentInfo{}
	}
}

// Save manifest struct to file.
func (info *LibraryInfo) SaveFile(filename string) error {
	data, err := json.MarshalIndent(info, "", "    ")
	if err != nil {
		return fmt.Errorf("JSON conversion failed: %s", err)
	}

	err = os.WriteFile(filename, data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write manifest file: %s", err)
	}

	return nil
}
