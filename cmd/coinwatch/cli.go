package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"

	"coinwatch/internal/errors"
	"coinwatch/internal/provider"
	"coinwatch/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(d *deps) *cli.App {
	app := &cli.App{
		Name:    "coinwatch",
		Usage:   "Cached crypto news: search, extract, and ingest over MCP, CLI, or HTTP",
		Version: Version,
		Commands: []*cli.Command{
			searchCmd(d),
			extractCmd(d),
			latestCmd(d),
			fetchCmd(d),
			webCmd(d),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// searchCmd resolves a query cache-first.
func searchCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search for news (cache first, live fallback)",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "max-results", Aliases: []string{"n"}, Value: 10, Usage: "Maximum number of results"},
			&cli.StringFlag{Name: "depth", Value: "basic", Usage: "Provider search depth: basic|advanced"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("query argument is required"))
			}

			result, err := d.resolver.Resolve(
				c.Context,
				c.Args().First(),
				c.Int("max-results"),
				provider.SearchDepth(c.String("depth")),
			)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

// extractCmd extracts full-page content for one URL.
func extractCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Extract the full content of an article URL",
		ArgsUsage: "<url>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("url argument is required"))
			}

			result, err := d.extractor.Extract(c.Context, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

// latestCmd lists the most recently ingested articles.
func latestCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "latest",
		Usage: "List the most recently cached articles",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "limit", Aliases: []string{"l"}, Value: 10, Usage: "Maximum number of articles"},
			&cli.Int64Flag{Name: "offset", Value: 0, Usage: "Index offset"},
		},
		Action: func(c *cli.Context) error {
			articles, err := d.store.List(c.Context, c.Int64("limit"), c.Int64("offset"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"articles": articles})
		},
	}
}

// fetchCmd triggers one ingestion sweep.
func fetchCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Run one ingestion sweep now",
		Action: func(c *cli.Context) error {
			started := d.scheduler.Sweep(c.Context)
			return outputJSON(map[string]any{"started": started})
		},
	}
}

// webCmd serves the HTTP API and the latest-news page.
func webCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Serve the HTTP API (scheduler runs alongside)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Bind address (overrides HTTP_ADDR)"},
		},
		Action: func(c *cli.Context) error {
			addr := c.String("addr")
			if addr == "" {
				addr = d.cfg.HTTPAddr
			}

			go d.scheduler.Run(c.Context, d.cfg.FetchInterval)

			router := web.NewRouter(d.store, d.resolver, d.extractor, d.scheduler, d.log)
			d.log.Info("serving http", "addr", addr)
			return http.ListenAndServe(addr, router)
		},
	}
}

// outputJSON writes indented JSON to stdout.
func outputJSON(data any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// outputError writes a typed error as JSON to stderr and signals exit 1.
func outputError(err error) error {
	payload := map[string]any{"error": err.Error()}
	if cwErr, ok := err.(*errors.Error); ok {
		payload = map[string]any{"error": map[string]any{
			"code":    cwErr.Code,
			"message": cwErr.Message,
		}}
	}
	data, _ := json.Marshal(payload)
	fmt.Fprintln(os.Stderr, string(data))
	return cli.Exit("", 1)
}
