package main

import (
	"context"
	"fmt"
	"os"

	"github.com/deckwash/deckwash/cmd/batch"
	"github.com/deckwash/deckwash/cmd/convert"
	"github.com/deckwash/deckwash/cmd/fetch"
	"github.com/deckwash/deckwash/cmd/history"
	"github.com/deckwash/deckwash/cmd/inspect"
	"github.com/deckwash/deckwash/cmd/serve"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:    "deckwash",
		Usage:   "remove watermarks from PDF documents and bundle pages into presentation files",
		Version: "0.1.0",
		Commands: []*cli.Command{
			convert.Cmd(),
			batch.Cmd(),
			serve.Cmd(),
			inspect.Cmd(),
			fetch.Cmd(),
			history.Cmd(),
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
