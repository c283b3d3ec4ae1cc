package history

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/deckwash/deckwash/history"
	"github.com/urfave/cli/v3"
)

func Cmd() *cli.Command {
	cmd := &cli.Command{
		Name:  "history",
		Usage: "list recent conversion records",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db",
				Usage: "history database path",
				Value: filepath.Join("data", "deckwash.db"),
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "maximum record count to show",
				Value:   20,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			return cmdMain(cmd.String("db"), int(cmd.Int("limit")))
		},
	}

	return cmd
}

func cmdMain(dbPath string, limit int) error {
	db, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer history.Close(db)

	records, err := history.Recent(db, limit)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("no conversion record")
		return nil
	}

	for _, record := range records {
		status := record.Status
		if record.Error != "" {
			status = fmt.Sprintf("%s (%s)", status, record.Error)
		}

		fmt.Printf(
			"%s  %-9s  %3d pages  %s -> %s\n",
			record.CreatedAt.Format("2006-01-02 15:04:05"),
			status,
			record.Pages,
			record.Input,
			record.Output,
		)
	}

	return nil
}
