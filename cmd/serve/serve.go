package serve

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	convert_pipeline "github.com/deckwash/deckwash/convert"
	"github.com/deckwash/deckwash/history"
	"github.com/deckwash/deckwash/pdfrender"
	"github.com/deckwash/deckwash/server"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"
)

func Cmd() *cli.Command {
	cmd := &cli.Command{
		Name:  "serve",
		Usage: "run the conversion service over HTTP",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "port to listen on, PORT environment variable is honored when flag is unset",
				Value:   int64(server.PortFromEnv()),
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "directory for uploads, results and the history database",
				Value: "data",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "history database path, empty value defaults to <data-dir>/deckwash.db",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "disable conversion history persistence",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdMain(ctx, cmd)
		},
	}

	return cmd
}

func cmdMain(ctx context.Context, cmd *cli.Command) error {
	dataDir := cmd.String("data-dir")

	renderer := &pdfrender.Poppler{}
	if err := renderer.Check(); err != nil {
		// the service can still start, health endpoint reports the problem
		log.Warnf("%s", err)
	}

	var db *gorm.DB
	if !cmd.Bool("no-history") {
		dbPath := cmd.String("db")
		if dbPath == "" {
			if err := os.MkdirAll(dataDir, 0o755); err == nil {
				dbPath = filepath.Join(dataDir, "deckwash.db")
			}
		}

		if dbPath != "" {
			opened, err := history.Open(dbPath)
			if err != nil {
				log.Warnf("history disabled: %s", err)
			} else {
				db = opened
				defer history.Close(db)
			}
		}
	}

	pipeline := &convert_pipeline.Pipeline{Renderer: renderer}

	srv, err := server.New(server.Config{
		Port:    int(cmd.Int("port")),
		DataDir: dataDir,
	}, pipeline, renderer.Check, db)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(runCtx)
}
