package convert

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-shiori/go-epub"
)

// packEpub bundles cleaned pages into a fixed layout image book, one section
// per page. Page images are staged as files under workDir because the epub
// builder embeds images by source path.
func packEpub(pages []page, title string, outputName string, workDir string, progress Progress) error {
	book, err := epub.NewEpub(title)
	if err != nil {
		return err
	}

	stageDir := filepath.Join(workDir, "epub-pages")
	if err = os.MkdirAll(stageDir, 0o755); err != nil {
		return fmt.Errorf("failed to create staging directory: %s", err)
	}

	totalCnt := len(pages)
	for i, pg := range pages {
		progress(0.5+float64(i)/float64(totalCnt)*0.5, fmt.Sprintf("adding page %d/%d", i+1, totalCnt))

		name := fmt.Sprintf("page-%04d.png", i+1)
		stagePath := filepath.Join(stageDir, name)
		if err = os.WriteFile(stagePath, pg.data, 0o644); err != nil {
			return fmt.Errorf("failed to stage page %d: %s", i+1, err)
		}

		internalPath, err := book.AddImage(stagePath, name)
		if err != nil {
			return fmt.Errorf("failed to add page %d image: %s", i+1, err)
		}

		body := fmt.Sprintf(`<div style="text-align: center;"><img src="%s" alt="Page %d"/></div>`, internalPath, i+1)
		if _, err = book.AddSection(body, fmt.Sprintf("Page %d", i+1), "", ""); err != nil {
			return fmt.Errorf("failed to add page %d section: %s", i+1, err)
		}
	}

	if err = book.Write(outputName); err != nil {
		return fmt.Errorf("failed to write file %s: %s", outputName, err)
	}

	return nil
}
