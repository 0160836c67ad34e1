// Copyright 2025 Ian Lewis
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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/urfave/cli/v2"

	stardict "github.com/ianlewis/sdreader"
)

const (
	// ExitCodeSuccess is successful error code.
	ExitCodeSuccess int = iota

	// ExitCodeFlagParseError is the exit code for a flag parsing error.
	ExitCodeFlagParseError

	// ExitCodeUnknownError is the exit code for an unknown error.
	ExitCodeUnknownError
)

// ErrSdutil is a parent error for all command errors.
var ErrSdutil = errors.New("sdutil")

// ErrFlagParse is a flag parsing error.
var ErrFlagParse = fmt.Errorf("%w: parsing flags", ErrSdutil)

// ErrNoDictionaries indicates that no dictionaries could be opened.
var ErrNoDictionaries = fmt.Errorf("%w: no dictionaries found", ErrSdutil)

var copyrightNames = []string{
	"2021 Google LLC",
	"2024 Ian Lewis",
}

//nolint:gochecknoinits // init needed needed for global variable.
func init() {
	// Set the HelpFlag to a random name so that it isn't used. `cli` handles
	// the flag with the root command such that it takes a command name argument
	// but we don't use commands.
	//
	// This is done because `sdutil --help foo` will display a
	// "command foo not found" error instead of the help.
	//
	// This flag is hidden by the help output.
	// See: github.com/urfave/cli/issues/1809
	cli.HelpFlag = &cli.BoolFlag{
		// NOTE: Use a random name no one would guess.
		Name:               "d41d8cd98f00b204e980",
		DisableDefaultText: true,
	}
}

// check checks the error and panics if not nil.
func check(err error) {
	if err != nil {
		panic(err)
	}
}

// newLogger returns a text logger writing to w. Debug messages are only
// written when verbose is set.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// openStardicts finds the dictionaries in the data directories and the
// directories named by the config file. Only metadata is read. Dictionaries
// that fail to open are logged and skipped.
func openStardicts(c *cli.Context) ([]*stardict.Stardict, error) {
	cfg, err := loadConfig(c.String("config"), c.IsSet("config"))
	if err != nil {
		return nil, err
	}
	dirs := slices.Concat(c.StringSlice("data-dir"), cfg.Dirs)

	opts := &stardict.Options{
		Sort: c.Bool("sort"),
	}

	var dicts []*stardict.Stardict
	for _, dir := range dirs {
		paths, err := stardict.Find(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Debug("skipping data directory", "dir", dir)
			} else {
				slog.Warn("searching data directory", "dir", dir, "err", err)
			}
			continue
		}

		for _, path := range paths {
			d, err := stardict.New(path, opts)
			if err != nil {
				slog.Warn("opening dictionary", "path", path, "err", err)
				continue
			}
			slog.Debug("found dictionary", "path", path, "bookname", d.Bookname())
			dicts = append(dicts, d)
		}
	}

	if len(dicts) == 0 {
		return nil, ErrNoDictionaries
	}
	return dicts, nil
}

func newStardictApp() *cli.App {
	return &cli.App{
		Name:  filepath.Base(os.Args[0]),
		Usage: "Search Stardict dictionaries.",
		Description: strings.Join([]string{
			"Stardict utility written in Go.",
			"http://github.com/ianlewis/sdreader",
		}, "\n"),
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "data-dir",
				Usage:   "include dictionaries in `DIR`",
				Aliases: []string{"d"},
				Value:   cli.NewStringSlice(dictLocations()...),
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "read dictionary directories from XML config `FILE`",
				Aliases: []string{"c"},
				Value:   defaultConfigPath,
			},
			&cli.BoolFlag{
				Name:               "sort",
				Usage:              "sort dictionary indexes after loading",
				DisableDefaultText: true,
			},
			&cli.BoolFlag{
				Name:               "verbose",
				Usage:              "print debug logs",
				Aliases:            []string{"v"},
				DisableDefaultText: true,
			},

			// Special flags are shown at the end.
			&cli.BoolFlag{
				Name:               "help",
				Usage:              "print this help text and exit",
				Aliases:            []string{"h"},
				DisableDefaultText: true,
			},
			&cli.BoolFlag{
				Name:               "version",
				Usage:              "print version information and exit",
				Aliases:            []string{"V"},
				DisableDefaultText: true,
			},
		},
		Copyright:       strings.Join(copyrightNames, "\n"),
		HideHelp:        true,
		HideHelpCommand: true,
		Before: func(c *cli.Context) error {
			slog.SetDefault(newLogger(c.App.ErrWriter, c.Bool("verbose")))
			return nil
		},
		OnUsageError: func(_ *cli.Context, err error, _ bool) error {
			return fmt.Errorf("%w: %w", ErrFlagParse, err)
		},
		Action: func(c *cli.Context) error {
			if c.Bool("version") {
				return printVersion(c)
			}

			check(cli.ShowAppHelp(c))
			return nil
		},
		Commands: []*cli.Command{
			listCommand,
			queryCommand,
			wordsCommand,
			interactiveCommand,
		},
	}
}
