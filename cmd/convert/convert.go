package convert

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	convert_pipeline "github.com/deckwash/deckwash/convert"
	"github.com/deckwash/deckwash/luahook"
	"github.com/deckwash/deckwash/pdfrender"
	"github.com/deckwash/deckwash/watermark"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

const progressSteps = 1000

func Cmd() *cli.Command {
	var inputName string
	var outputName string

	cmd := &cli.Command{
		Name:  "convert",
		Usage: "convert one PDF document into a watermark free presentation",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "dpi",
				Aliases: []string{"d"},
				Usage:   "render resolution, higher value gives better quality but slower processing",
				Value:   pdfrender.DefaultDPI,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "output file format, one of: pptx, pdf, epub",
				Value:   convert_pipeline.FormatPptx,
			},
			&cli.IntFlag{
				Name:    "job",
				Aliases: []string{"j"},
				Usage:   "job count for page image processing",
				Value:   int64(runtime.NumCPU()),
			},
			&cli.StringSliceFlag{
				Name:    "region",
				Aliases: []string{"r"},
				Usage:   "watermark region in form WxH or WxH@anchor, repeatable",
			},
			&cli.StringFlag{
				Name:    "script",
				Aliases: []string{"s"},
				Usage:   "Lua script deciding watermark regions for each page",
			},
			&cli.StringFlag{
				Name:  "page-dir",
				Usage: "also save cleaned page images to this directory",
			},
			&cli.StringFlag{
				Name:  "page-format",
				Usage: "image format for cleaned page dumps",
				Value: "png",
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "random seed for fill noise, 0 picks a time based seed",
			},
		},
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "input",
				UsageText:   "<input.pdf>",
				Destination: &inputName,
				Min:         1,
				Max:         1,
			},
			&cli.StringArg{
				Name:        "output",
				UsageText:   " [output]",
				Destination: &outputName,
				Max:         1,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			options, err := getOptionsFromCmd(cmd)
			if err != nil {
				return err
			}
			if options.RegionScript != nil {
				defer options.RegionScript.Close()
			}

			return cmdMain(ctx, inputName, outputName, options)
		},
	}

	return cmd
}

func getOptionsFromCmd(cmd *cli.Command) (convert_pipeline.Options, error) {
	options := convert_pipeline.Options{
		DPI:             int(cmd.Int("dpi")),
		Format:          cmd.String("format"),
		JobCnt:          int(cmd.Int("job")),
		KeepImageDir:    cmd.String("page-dir"),
		KeepImageFormat: cmd.String("page-format"),
		Seed:            cmd.Int("seed"),
	}

	for _, value := range cmd.StringSlice("region") {
		region, err := watermark.ParseRegion(value)
		if err != nil {
			return options, err
		}
		options.Regions = append(options.Regions, region)
	}

	if scriptPath := cmd.String("script"); scriptPath != "" {
		script, err := luahook.LoadRegionScript(scriptPath)
		if err != nil {
			return options, err
		}
		options.RegionScript = script
	}

	return convert_pipeline.NormalizeOptions(options)
}

func cmdMain(ctx context.Context, inputName string, outputName string, options convert_pipeline.Options) error {
	if _, err := os.Stat(inputName); err != nil {
		return fmt.Errorf("cannot access input file %s: %s", inputName, err)
	}

	renderer := &pdfrender.Poppler{}
	if err := renderer.Check(); err != nil {
		return err
	}

	if outputName == "" {
		outputName = convert_pipeline.DefaultOutputName(inputName, options.Format)
	}

	pipeline := &convert_pipeline.Pipeline{Renderer: renderer}

	bar := progressbar.NewOptions(progressSteps,
		progressbar.OptionSetDescription("converting"),
		progressbar.OptionShowCount(),
	)

	result, err := pipeline.Run(ctx, inputName, outputName, options, func(fraction float64, desc string) {
		bar.Describe(desc)
		_ = bar.Set(int(fraction * progressSteps))
	})
	if err != nil {
		return err
	}

	fmt.Println()
	log.Infof("%d pages cleaned in %s", result.Pages, result.Elapsed.Round(time.Millisecond))
	log.Infof("output save as: %s", result.OutputName)

	return nil
}
