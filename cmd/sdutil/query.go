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
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v2"

	stardict "github.com/ianlewis/sdreader"
)

var queryCommand = &cli.Command{
	Name:      "query",
	Usage:     "look up a word in all dictionaries",
	ArgsUsage: "WORD",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:               "prefix",
			Usage:              "show the first entry starting with WORD",
			Aliases:            []string{"p"},
			DisableDefaultText: true,
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("%w: expected one WORD argument", ErrFlagParse)
		}
		word := c.Args().First()

		mode := stardict.Exact
		if c.Bool("prefix") {
			mode = stardict.Prefix
		}

		dicts, err := openStardicts(c)
		if err != nil {
			return err
		}

		var found bool
		for _, d := range dicts {
			if err := d.Load(); err != nil {
				slog.Warn("loading dictionary", "path", d.Path(), "err", err)
				continue
			}

			entries, err := lookup(d, word, mode)
			if err != nil {
				slog.Warn("searching dictionary", "path", d.Path(), "err", err)
			}
			for _, e := range entries {
				printEntry(c.App.Writer, d, e)
				found = true
			}

			if err := d.Unload(); err != nil {
				slog.Warn("unloading dictionary", "path", d.Path(), "err", err)
			}
		}

		if !found {
			fmt.Fprintf(c.App.Writer, "no entries found for %q\n", word)
		}
		return nil
	},
}

// lookup returns the entries matching word in a loaded dictionary. Exact
// searches fall back to the dictionary's synonyms.
func lookup(d *stardict.Stardict, word string, mode stardict.Mode) ([]*stardict.Entry, error) {
	i, found, err := d.Search(word, mode)
	if err != nil {
		return nil, err
	}

	var positions []int
	switch {
	case found:
		positions = []int{i}
	case mode == stardict.Exact:
		positions, err = d.Synonyms(word)
		if err != nil {
			return nil, err
		}
	}

	var entries []*stardict.Entry
	for _, p := range positions {
		e, err := d.Entry(p)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func printEntry(w io.Writer, d *stardict.Stardict, e *stardict.Entry) {
	fmt.Fprintf(w, "[%s]\n%s\n\n", d.Bookname(), e)
}
