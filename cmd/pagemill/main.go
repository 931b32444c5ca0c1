package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	pagemill "github.com/pagemill/pagemill"
	"github.com/pagemill/pagemill/internal"
	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.App{
		Name:   "pagemill",
		Action: generateAction,
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:  "config",
				Value: "pagemill.json",
			},
			&cli.PathFlag{
				Name:     "out",
				Usage:    "output directory for the generated site",
				Required: true,
			},
			&cli.PathFlag{
				Name:  "base-path",
				Value: "",
			},
			&cli.StringFlag{
				Name:  "serve",
				Usage: "Serve the site for local preview: -serve :8080",
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		TUIPrintln("error: %v", err)
		os.Exit(1)
	}
}

func generateAction(c *cli.Context) error {
	var (
		configPath = c.Path("config")
		outDir     = c.Path("out")
		basePath   = c.Path("base-path")
		serveAddr  = c.String("serve")
	)

	start := time.Now()

	err := os.RemoveAll(outDir)
	if err != nil {
		return fmt.Errorf("clear output directory: %w", err)
	}

	err = os.MkdirAll(outDir, 0o770)
	if err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	var conf pagemill.Config

	err = internal.UnmarshalFile(configPath, &conf)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	err = pagemill.Generate(c.Context, outDir, basePath, conf, TUIPrintln)
	if err != nil {
		return fmt.Errorf("generate site: %w", err)
	}

	duration := time.Since(start)

	TUIPrintln("Generated site in %s", duration.String())

	if serveAddr == "" {
		return nil
	}

	theme := pagemill.DefaultTheme().Extend(conf.Theme)

	src, err := pagemill.OpenSource(conf.Source)
	if err != nil {
		return fmt.Errorf("open content source: %w", err)
	}

	entries, err := pagemill.BuildPageMap(src)
	if err != nil {
		return fmt.Errorf("build page map: %w", err)
	}

	srv := pagemill.NewPreviewServer(outDir, theme, entries)

	// Rebuild on content changes. Only local sources can be watched.
	if conf.Source.Clone == "" && conf.Source.Dir != "" {
		go func() {
			err := pagemill.Watch(c.Context, conf.Source.Dir, func() error {
				err := pagemill.Generate(
					c.Context, outDir, basePath, conf, TUIPrintln)
				if err != nil {
					return err
				}

				src, err := pagemill.OpenSource(conf.Source)
				if err != nil {
					return err
				}

				entries, err := pagemill.BuildPageMap(src)
				if err != nil {
					return err
				}

				srv.SetEntries(entries)

				return nil
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				TUIPrintln("watch error: %v", err)
			}
		}()
	}

	TUIPrintln("Serving site at %s", serveAddr)

	err = srv.Start(serveAddr)
	if err != nil {
		return fmt.Errorf("serve site: %w", err)
	}

	return nil
}

func TUIPrintln(format string, a ...any) {
	_, err := fmt.Fprintf(os.Stderr, format, a...)
	if err != nil {
		println(err.Error())

		return
	}

	println()
}
