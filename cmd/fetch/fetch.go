package fetch

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	convert_pipeline "github.com/deckwash/deckwash/convert"
	"github.com/deckwash/deckwash/fetch"
	"github.com/deckwash/deckwash/pdfrender"
	"github.com/urfave/cli/v3"
)

func Cmd() *cli.Command {
	var target string

	cmd := &cli.Command{
		Name:  "fetch",
		Usage: "download PDF documents from a direct link or a listing page",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "directory to save downloaded documents to",
				Value:   ".",
			},
			&cli.IntFlag{
				Name:  "max-retry",
				Usage: "retry count for failed requests",
				Value: 3,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "request timeout",
				Value: 30 * time.Second,
			},
			&cli.BoolFlag{
				Name:    "convert",
				Aliases: []string{"c"},
				Usage:   "convert every downloaded document after fetching",
			},
			&cli.IntFlag{
				Name:  "dpi",
				Usage: "render resolution used with --convert",
				Value: pdfrender.DefaultDPI,
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "output format used with --convert",
				Value: convert_pipeline.FormatPptx,
			},
		},
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "url",
				UsageText:   "<url>",
				Destination: &target,
				Min:         1,
				Max:         1,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdMain(ctx, cmd, target)
		},
	}

	return cmd
}

func cmdMain(ctx context.Context, cmd *cli.Command, target string) error {
	outputDir := cmd.String("output")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %s", outputDir, err)
	}

	options := fetch.Options{
		MaxRetry: int(cmd.Int("max-retry")),
		Timeout:  cmd.Duration("timeout"),
	}

	links, err := resolveDocumentLinks(target, options)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		log.Warnf("no PDF link found at %s", target)
		return nil
	}

	var downloaded []string
	for _, link := range links {
		outputName := filepath.Join(outputDir, fetch.OutputNameForURL(link))

		if err := fetch.DownloadFile(link, outputName, options); err != nil {
			log.Errorf("%s", err)
			continue
		}

		downloaded = append(downloaded, outputName)
	}

	if !cmd.Bool("convert") {
		return nil
	}

	return convertDownloaded(ctx, cmd, downloaded)
}

// resolveDocumentLinks treats direct PDF URLs as a single link, any other URL
// as a listing page to scan.
func resolveDocumentLinks(target string, options fetch.Options) ([]string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %s", target, err)
	}

	if strings.EqualFold(path.Ext(u.Path), ".pdf") {
		return []string{target}, nil
	}

	return fetch.CollectDocumentLinks(target, options)
}

func convertDownloaded(ctx context.Context, cmd *cli.Command, inputs []string) error {
	renderer := &pdfrender.Poppler{}
	if err := renderer.Check(); err != nil {
		return err
	}

	pipeline := &convert_pipeline.Pipeline{Renderer: renderer}

	format := cmd.String("format")
	for _, inputName := range inputs {
		outputName := convert_pipeline.DefaultOutputName(inputName, format)

		result, err := pipeline.Run(ctx, inputName, outputName, convert_pipeline.Options{
			DPI:    int(cmd.Int("dpi")),
			Format: format,
		}, nil)
		if err != nil {
			log.Errorf("failed to convert %s: %s", inputName, err)
			continue
		}

		log.Infof("output save as: %s", result.OutputName)
	}

	return nil
}
