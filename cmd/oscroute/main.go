// Command oscroute inspects OSC addresses and manages persisted route bindings.
//
//	oscroute classify /synth/1/freq /synth/*/freq
//	oscroute match --routes routes.yaml /synth/2/freq
//	oscroute bind --db routes.db /synth/*/gate gate
//	oscroute list --db routes.db
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "oscroute",
		Usage:                  "Inspect OSC addresses and route tables",
		Version:                Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log address space activity to stderr",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "classify",
				Aliases:   []string{"c"},
				Usage:     "Classify each argument as address, pattern or invalid",
				ArgsUsage: "ADDRESS...",
				Action:    classifyCommand,
			},
			{
				Name:      "match",
				Aliases:   []string{"m"},
				Usage:     "Dispatch addresses against a route table and show which handlers run",
				ArgsUsage: "ADDRESS...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "routes",
						Aliases:  []string{"r"},
						Usage:    "Route table (.yaml, .yml, .json or .toml)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "incoming",
						Usage: "Also match this pattern against the table's literal addresses",
					},
				},
				Action: matchCommand,
			},
			{
				Name:      "bind",
				Usage:     "Persist a binding of HANDLER at ADDRESS",
				ArgsUsage: "ADDRESS HANDLER",
				Flags:     []cli.Flag{dbFlag()},
				Action:    bindCommand,
			},
			{
				Name:      "unbind",
				Usage:     "Remove a persisted binding",
				ArgsUsage: "ADDRESS HANDLER",
				Flags:     []cli.Flag{dbFlag()},
				Action:    unbindCommand,
			},
			{
				Name:  "list",
				Usage: "List persisted bindings in restore order",
				Flags: []cli.Flag{
					dbFlag(),
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: listCommand,
			},
		},
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "SQLite binding database",
		Value:   "oscroute.db",
	}
}

// loggerFor returns a debug logger on the app's error writer when --verbose
// is set, nil otherwise.
func loggerFor(c *cli.Context) *slog.Logger {
	if !c.Bool("verbose") {
		return nil
	}
	var w io.Writer = c.App.ErrWriter
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
