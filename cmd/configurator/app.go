package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/redhatinsights/configurator/internal/conf"
	"github.com/redhatinsights/configurator/internal/l10n"
	"github.com/redhatinsights/configurator/internal/loader"
	"github.com/redhatinsights/configurator/internal/manager"
	"github.com/redhatinsights/configurator/internal/merge"
	"github.com/redhatinsights/configurator/internal/store"
	"github.com/redhatinsights/configurator/internal/value"
)

const (
	formatFlat = "flat"
	formatJSON = "json"
)

// session is the state shared by all commands of one invocation.
type session struct {
	settings conf.Config
	manager  *manager.Manager
}

func newApp() *cli.App {
	s := &session{}

	return &cli.App{
		Name:  "configurator",
		Usage: l10n.T("load configuration files into a single dotted-key view"),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: conf.DefaultPath,
				Usage: l10n.T("settings file of the command"),
			},
			&cli.StringFlag{
				Name:  "config-dir",
				Value: conf.DefaultDropInDir,
				Usage: l10n.T("directory of settings drop-in files"),
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: l10n.T("fail when two sources define the same key"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: l10n.T("log level: debug, info, warn or error"),
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: l10n.T("output format: flat or json"),
			},
		},
		Before: s.setup,
		Commands: []*cli.Command{
			{
				Name:      "dump",
				Usage:     l10n.T("print every key of the loaded sources"),
				ArgsUsage: "SOURCE...",
				Action:    s.dump,
			},
			{
				Name:      "get",
				Usage:     l10n.T("print the value of one key"),
				ArgsUsage: "KEY SOURCE...",
				Action:    s.get,
			},
			{
				Name:      "check",
				Usage:     l10n.T("load the sources and report problems"),
				ArgsUsage: "SOURCE...",
				Action:    s.check,
			},
			{
				Name:   "loaders",
				Usage:  l10n.T("list the supported file extensions"),
				Action: s.loaders,
			},
		},
	}
}

// setup resolves settings (defaults, settings files, then flags) and builds
// the manager.
func (s *session) setup(c *cli.Context) error {
	source := &conf.ConfigSource{
		Path:      c.String("config"),
		DropInDir: c.String("config-dir"),
	}
	settings, err := source.Read()
	if err != nil {
		return err
	}

	if c.IsSet("log-level") {
		if err := settings.LogLevel.UnmarshalText([]byte(c.String("log-level"))); err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
	}
	if c.Bool("strict") {
		settings.Strategy = merge.Strict{}.Name()
	}
	if c.IsSet("format") {
		settings.Format = c.String("format")
	}
	if settings.Format != formatFlat && settings.Format != formatJSON {
		return errors.New(l10n.T("unknown output format %q", settings.Format))
	}

	strategy, err := merge.Named(settings.Strategy)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: settings.LogLevel}))
	logger.Debug("settings resolved", "strategy", settings.Strategy, "format", settings.Format, "extensions", settings.Extensions)

	s.settings = settings
	s.manager = manager.New(
		manager.WithLogger(logger),
		manager.WithStrategy(strategy),
		manager.WithLoaders(enabledLoaders(settings.Extensions)...),
	)
	return nil
}

// enabledLoaders returns the built-in loaders restricted to extensions. An
// empty list enables everything.
func enabledLoaders(extensions []string) []loader.Loader {
	if len(extensions) == 0 {
		return loader.Defaults()
	}
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[ext] = true
	}

	var loaders []loader.Loader
	for _, l := range loader.Defaults() {
		var exts []string
		for _, ext := range l.Extensions() {
			if allowed[ext] {
				exts = append(exts, ext)
			}
		}
		if len(exts) > 0 {
			loaders = append(loaders, loader.Func{Exts: exts, Fn: l.Load})
		}
	}
	return loaders
}

// loadSources loads each source, as a directory or as a single file.
func (s *session) loadSources(sources []string) error {
	if len(sources) == 0 {
		return errors.New(l10n.T("no configuration source given"))
	}
	for _, source := range sources {
		info, err := os.Stat(source)
		if err == nil && info.IsDir() {
			err = s.manager.LoadDirectory(source)
		} else {
			err = s.manager.Load(source)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *session) dump(c *cli.Context) error {
	if err := s.loadSources(c.Args().Slice()); err != nil {
		return err
	}
	return printEntries(c.App.Writer, s.manager.All(), s.settings.Format)
}

func (s *session) get(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return errors.New(l10n.T("usage: get KEY SOURCE..."))
	}
	key := c.Args().First()
	if err := s.loadSources(c.Args().Tail()); err != nil {
		return err
	}

	v, ok := s.manager.Lookup(key)
	if !ok {
		return errors.New(l10n.T("key %q not found", key))
	}
	if s.settings.Format == formatJSON {
		data, err := v.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(c.App.Writer, string(data))
		return err
	}
	_, err := fmt.Fprintln(c.App.Writer, v.String())
	return err
}

func (s *session) check(c *cli.Context) error {
	if err := s.loadSources(c.Args().Slice()); err != nil {
		return err
	}
	_, err := fmt.Fprintln(c.App.Writer, l10n.TN("ok: %d key loaded", "ok: %d keys loaded", len(s.manager.All())))
	return err
}

func (s *session) loaders(c *cli.Context) error {
	for _, ext := range s.manager.Extensions() {
		if _, err := fmt.Fprintln(c.App.Writer, ext); err != nil {
			return err
		}
	}
	return nil
}

// printEntries writes entries as "key = value" lines, or as one JSON object
// keyed by the dotted keys. Flat output is aligned on a terminal.
func printEntries(w io.Writer, entries []store.Entry, format string) error {
	if format == formatJSON {
		flat := value.NewMap()
		for _, entry := range entries {
			flat.Set(entry.Key, entry.Value)
		}
		data, err := json.MarshalIndent(value.MapOf(flat), "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	width := 0
	if isTerminal(w) {
		for _, entry := range entries {
			width = max(width, len(entry.Key))
		}
	}
	for _, entry := range entries {
		if _, err := fmt.Fprintf(w, "%-*s = %s\n", width, entry.Key, entry.Value); err != nil {
			return err
		}
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
