// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/poiesic/inventree"
	"github.com/poiesic/inventree/config"
	"github.com/poiesic/inventree/lifecycle"
	"github.com/poiesic/inventree/search"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "inventree",
		Usage: "Hybrid retrieval over patents and research gaps",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Value:   "inventree.yaml",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB index store directory",
			},
			&cli.StringFlag{
				Name:  "patents",
				Usage: "Path to patent records JSON file",
			},
			&cli.StringFlag{
				Name:  "gaps",
				Usage: "Path to research gap records JSON file",
			},
			&cli.StringFlag{
				Name:  "embedding-provider",
				Usage: "Embedding provider (openai, ollama)",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
			},
			&cli.BoolFlag{
				Name:  "sparse-only",
				Usage: "Build and query the lexical index only",
			},
			&cli.BoolFlag{
				Name:  "dense-fallback",
				Usage: "Answer lexically when no dense index is stored",
			},
			&cli.BoolFlag{
				Name:  "rebuild-on-corrupt",
				Usage: "Rebuild instead of failing when the stored index is unreadable",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "rebuild",
				Usage:  "Rebuild both indices from the record files",
				Action: rebuildCommand,
			},
			{
				Name:      "query",
				Usage:     "Retrieve the units most relevant to a question",
				ArgsUsage: "<text...>",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "k",
						Aliases: []string{"n"},
						Usage:   "Number of results (0 uses the configured default)",
					},
					&cli.BoolFlag{
						Name:  "context",
						Usage: "Print only the joined unit contents",
					},
				},
			},
			{
				Name:   "export",
				Usage:  "Write the current index artifacts to a directory",
				Action: exportCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Usage:    "Output directory",
						Required: true,
					},
				},
			},
			{
				Name:   "generations",
				Usage:  "List stored index generations",
				Action: generationsCommand,
			},
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("db") {
		cfg.Store.Path = c.String("db")
	}
	if c.IsSet("patents") {
		cfg.Records.Patents = c.String("patents")
	}
	if c.IsSet("gaps") {
		cfg.Records.Gaps = c.String("gaps")
	}
	if c.IsSet("embedding-provider") {
		cfg.Embedding.Provider = c.String("embedding-provider")
	}
	if c.IsSet("embedding-host") {
		cfg.Embedding.Host = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.Embedding.Model = c.String("embedding-model")
	}
	if c.IsSet("sparse-only") {
		cfg.Embedding.SparseOnly = c.Bool("sparse-only")
	}
	if c.IsSet("dense-fallback") {
		cfg.Retrieval.DenseFallback = c.Bool("dense-fallback")
	}
	if c.IsSet("rebuild-on-corrupt") {
		cfg.Retrieval.RebuildOnCorrupt = c.Bool("rebuild-on-corrupt")
	}
	return cfg, cfg.Validate()
}

func openVault(c *cli.Context, opts ...inventree.VaultOption) (*inventree.Vault, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	v, err := inventree.Open(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open index store: %w", err)
	}
	return v, nil
}

func rebuildCommand(c *cli.Context) error {
	ctx := context.Background()

	v, err := openVault(c, inventree.WithProgress(c.App.ErrWriter))
	if err != nil {
		return err
	}
	defer v.Close()

	report, err := v.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}
	printReport(c.App.Writer, report)
	return nil
}

func printReport(w io.Writer, r *lifecycle.BuildReport) {
	fmt.Fprintf(w, "Generation: %s\n", r.GenerationID)
	fmt.Fprintf(w, "Records:    %d read, %d indexed (%d patents, %d gaps), %d skipped\n",
		r.Records, r.Units, r.Patents, r.Gaps, len(r.Warnings))
	if r.Dense {
		fmt.Fprintf(w, "Dense:      %s, %d dimensions\n", r.Model, r.Dimension)
	} else {
		fmt.Fprintln(w, "Dense:      disabled")
	}
	fmt.Fprintf(w, "Pruned:     %d old generations\n", r.Pruned)
	fmt.Fprintf(w, "Took:       %s (embedding %s)\n", r.Total.Round(time.Millisecond), r.DenseTime.Round(time.Millisecond))
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "  skipped: %v\n", warning)
	}
}

func queryCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("query text is required")
	}

	v, err := openVault(c)
	if err != nil {
		return err
	}
	defer v.Close()

	if err := v.Load(ctx); err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}
	resp, err := v.Retrieve(ctx, query, c.Int("k"))
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	for _, warning := range resp.Warnings {
		fmt.Fprintf(c.App.ErrWriter, "warning: %s\n", warning)
	}
	if c.Bool("context") {
		fmt.Fprintln(c.App.Writer, search.FormatContext(resp.Results))
		return nil
	}
	if len(resp.Results) == 0 {
		fmt.Fprintln(c.App.Writer, "No results.")
		return nil
	}
	for i, r := range resp.Results {
		fmt.Fprintf(c.App.Writer, "%d. [%s %s] score=%.4f\n", i+1, r.Unit.Metadata.Kind, r.Unit.Metadata.ID, r.Score)
		for _, line := range strings.Split(r.Unit.Content, "\n") {
			fmt.Fprintf(c.App.Writer, "   %s\n", line)
		}
	}
	return nil
}

func exportCommand(c *cli.Context) error {
	ctx := context.Background()

	v, err := openVault(c)
	if err != nil {
		return err
	}
	defer v.Close()

	paths, err := v.Export(ctx, c.String("out"))
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	for _, p := range paths {
		fmt.Fprintln(c.App.Writer, p)
	}
	return nil
}

func generationsCommand(c *cli.Context) error {
	ctx := context.Background()

	v, err := openVault(c)
	if err != nil {
		return err
	}
	defer v.Close()

	gens, err := v.Generations(ctx)
	if err != nil {
		return err
	}
	if len(gens) == 0 {
		fmt.Fprintln(c.App.Writer, "No generations stored.")
		return nil
	}
	current, err := v.StoredGeneration(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tUNITS\tDENSE\tMODEL\t")
	for _, g := range gens {
		marker := ""
		if g.ID == current.ID {
			marker = " *"
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%d\t%t\t%s\t\n", g.ID, marker, g.CreatedAt.Format("2006-01-02 15:04:05"), g.Units, g.HasDense, g.Model)
	}
	return tw.Flush()
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
