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

	"github.com/urfave/cli/v2"

	stardict "github.com/ianlewis/sdreader"
)

var wordsCommand = &cli.Command{
	Name:      "words",
	Usage:     "list index words starting at the first word matching PREFIX",
	ArgsUsage: "PREFIX",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Usage:   "list at most `N` words",
			Aliases: []string{"n"},
			Value:   10,
		},
		&cli.IntFlag{
			Name:    "dict",
			Usage:   "use dictionary number `NUM` as shown by list",
			Aliases: []string{"d"},
			Value:   1,
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("%w: expected one PREFIX argument", ErrFlagParse)
		}

		dicts, err := openStardicts(c)
		if err != nil {
			return err
		}

		num := c.Int("dict")
		if num < 1 || num > len(dicts) {
			return fmt.Errorf("%w: dictionary number %d not in 1-%d", ErrFlagParse, num, len(dicts))
		}
		d := dicts[num-1]

		if err := d.Load(); err != nil {
			return fmt.Errorf("%w: %w", ErrSdutil, err)
		}
		defer d.Unload()

		words, err := wordList(d, c.Args().First(), c.Int("count"))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSdutil, err)
		}
		for _, w := range words {
			fmt.Fprintln(c.App.Writer, w)
		}
		return nil
	},
}

// wordList returns up to n index words in index order starting at the first
// word that starts with prefix.
func wordList(d *stardict.Stardict, prefix string, n int) ([]string, error) {
	i, found, err := d.Search(prefix, stardict.Prefix)
	if err != nil || !found {
		return nil, err
	}

	count, err := d.EntryCount()
	if err != nil {
		return nil, err
	}

	var words []string
	for ; i < count && len(words) < n; i++ {
		w, err := d.WordAt(i)
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, nil
}
