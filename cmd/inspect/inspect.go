package inspect

import (
	"context"
	"fmt"

	"github.com/deckwash/deckwash/pdfrender"
	"github.com/urfave/cli/v3"
)

func Cmd() *cli.Command {
	var inputName string

	cmd := &cli.Command{
		Name:  "inspect",
		Usage: "print document metadata reported by the PDF toolkit",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "input",
				UsageText:   "<input.pdf>",
				Destination: &inputName,
				Min:         1,
				Max:         1,
			},
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			return cmdMain(ctx, inputName)
		},
	}

	return cmd
}

func cmdMain(ctx context.Context, inputName string) error {
	renderer := &pdfrender.Poppler{}
	if err := renderer.Check(); err != nil {
		return err
	}

	info, err := renderer.Info(ctx, inputName)
	if err != nil {
		return err
	}

	fmt.Printf("%-12s: %s\n", "title", info.Title)
	fmt.Printf("%-12s: %d\n", "pages", info.Pages)
	fmt.Printf("%-12s: %.2f x %.2f pts\n", "page size", info.PageWidthPt, info.PageHeightPt)
	fmt.Printf("%-12s: %t\n", "encrypted", info.Encrypted)
	fmt.Printf("%-12s: %s\n", "PDF version", info.PDFVersion)

	return nil
}
