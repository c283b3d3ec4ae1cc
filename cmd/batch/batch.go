package batch

import (
	"context"
	"fmt"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/deckwash/deckwash/common"
	convert_pipeline "github.com/deckwash/deckwash/convert"
	"github.com/deckwash/deckwash/library"
	"github.com/deckwash/deckwash/luahook"
	"github.com/deckwash/deckwash/pdfrender"
	"github.com/deckwash/deckwash/watermark"
	"github.com/urfave/cli/v3"
)

func Cmd() *cli.Command {
	var manifestPath string
	var docIndex int64

	cmd := &cli.Command{
		Name:  "batch",
		Usage: "convert every document listed in a manifest JSON file",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "job",
				Aliases: []string{"j"},
				Usage:   "job count for page image processing",
				Value:   int64(runtime.NumCPU()),
			},
		},
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "manifest-file",
				UsageText:   "<manifest>",
				Destination: &manifestPath,
				Min:         1,
				Max:         1,
			},
			&cli.IntArg{
				Name:        "document-index",
				UsageText:   " <index>",
				Destination: &docIndex,
				Value:       -1,
				Max:         1,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdMain(ctx, manifestPath, int(docIndex), int(cmd.Int("job")))
		},
	}

	return cmd
}

func cmdMain(ctx context.Context, manifestPath string, docIndex int, jobCnt int) error {
	info, err := library.ReadLibraryInfo(manifestPath)
	if err != nil {
		return err
	}

	targets := info.Documents
	if 0 <= docIndex && docIndex < len(info.Documents) {
		targets = info.Documents[docIndex : docIndex+1]
	}

	renderer := &pdfrender.Poppler{}
	if err := renderer.Check(); err != nil {
		return err
	}

	pipeline := &convert_pipeline.Pipeline{Renderer: renderer}

	for _, doc := range targets {
		logWorkBeginBanner(&doc)

		if err := convertOneDocument(ctx, pipeline, &doc, jobCnt); err != nil {
			log.Errorf("failed to convert %s: %s", doc.Input, err)
		}
	}

	return nil
}

func convertOneDocument(ctx context.Context, pipeline *convert_pipeline.Pipeline, doc *library.DocumentInfo, jobCnt int) error {
	options := convert_pipeline.Options{
		DPI:          doc.DPI,
		Format:       doc.Format,
		JobCnt:       jobCnt,
		KeepImageDir: doc.PageDir,
	}

	if doc.Region != "" {
		region, err := watermark.ParseRegion(doc.Region)
		if err != nil {
			return err
		}
		options.Regions = []watermark.Region{region}
	}

	if doc.RegionScript != "" {
		script, err := luahook.LoadRegionScript(doc.RegionScript)
		if err != nil {
			return err
		}
		defer script.Close()
		options.RegionScript = script
	}

	outputName := common.GetStrOr(doc.Output, convert_pipeline.DefaultOutputName(doc.Input, common.GetStrOr(doc.Format, convert_pipeline.FormatPptx)))

	result, err := pipeline.Run(ctx, doc.Input, outputName, options, nil)
	if err != nil {
		return err
	}

	log.Infof("output save as: %s (%d pages)", result.OutputName, result.Pages)

	return nil
}

// logWorkBeginBanner prints a banner indicating conversion of a new document
// starts.
func logWorkBeginBanner(doc *library.DocumentInfo) {
	msgs := []string{
		fmt.Sprintf("%-10s: %s", "input", doc.Input),
		fmt.Sprintf("%-10s: %s", "output", doc.Output),
		fmt.Sprintf("%-10s: %s", "format", doc.Format),
	}

	common.LogBannerMsg(msgs, 5)
}
