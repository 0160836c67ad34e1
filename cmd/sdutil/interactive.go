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
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/urfave/cli/v2"

	stardict "github.com/ianlewis/sdreader"
	"github.com/ianlewis/sdreader/internal/folding"
)

const interactiveHelp = `Type a word to look it up.
  :d      list dictionaries
  :d NUM  switch to dictionary NUM
  :q      quit`

var interactiveCommand = &cli.Command{
	Name:    "interactive",
	Usage:   "look up words interactively",
	Aliases: []string{"i"},
	Action: func(c *cli.Context) error {
		dicts, err := openStardicts(c)
		if err != nil {
			return err
		}

		r := &repl{
			dicts:  dicts,
			active: -1,
			in:     bufio.NewScanner(c.App.Reader),
			out:    c.App.Writer,
		}
		defer r.close()

		if err := r.use(0); err != nil {
			return fmt.Errorf("%w: %w", ErrSdutil, err)
		}
		fmt.Fprintln(r.out, interactiveHelp)
		return r.run()
	},
}

// repl looks up words in one active dictionary. Only the active dictionary
// is loaded.
type repl struct {
	dicts  []*stardict.Stardict
	active int

	in  *bufio.Scanner
	out io.Writer
}

func (r *repl) run() error {
	for {
		fmt.Fprintf(r.out, "%s> ", r.dicts[r.active].Bookname())
		if !r.in.Scan() {
			fmt.Fprintln(r.out)
			if err := r.in.Err(); err != nil {
				return fmt.Errorf("%w: reading input: %w", ErrSdutil, err)
			}
			return nil
		}

		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, ":") {
			r.lookup(line)
			continue
		}

		args, err := shellquote.Split(line)
		if err != nil {
			fmt.Fprintf(r.out, "parse error: %v\n", err)
			continue
		}
		switch args[0] {
		case ":q":
			return nil
		case ":d":
			if len(args) == 1 {
				r.list()
				continue
			}
			num, err := strconv.Atoi(args[1])
			if err != nil || num < 1 || num > len(r.dicts) {
				fmt.Fprintf(r.out, "invalid dictionary number %q\n", args[1])
				continue
			}
			if err := r.use(num - 1); err != nil {
				fmt.Fprintf(r.out, "loading %s: %v\n", r.dicts[num-1].Bookname(), err)
			}
		default:
			fmt.Fprintln(r.out, interactiveHelp)
		}
	}
}

// use loads dictionary i and unloads the previously active dictionary. The
// active dictionary is unchanged if loading fails.
func (r *repl) use(i int) error {
	if i == r.active {
		return nil
	}
	if err := r.dicts[i].Load(); err != nil {
		return err
	}
	if r.active >= 0 {
		if err := r.dicts[r.active].Unload(); err != nil {
			slog.Warn("unloading dictionary", "path", r.dicts[r.active].Path(), "err", err)
		}
	}
	r.active = i
	slog.Debug("using dictionary", "path", r.dicts[i].Path())
	return nil
}

func (r *repl) list() {
	for i, d := range r.dicts {
		marker := " "
		if i == r.active {
			marker = "*"
		}
		fmt.Fprintf(r.out, "%s %d %s\n", marker, i+1, d.Bookname())
	}
}

// lookup prints the first entry starting with the query.
func (r *repl) lookup(line string) {
	query, err := folding.String(folding.Query, line)
	if err != nil {
		fmt.Fprintf(r.out, "invalid query: %v\n", err)
		return
	}

	d := r.dicts[r.active]
	entries, err := lookup(d, query, stardict.Prefix)
	if err != nil {
		fmt.Fprintf(r.out, "search error: %v\n", err)
		return
	}
	if len(entries) == 0 {
		fmt.Fprintf(r.out, "no entries found for %q\n", query)
		return
	}
	for _, e := range entries {
		printEntry(r.out, d, e)
	}
}

func (r *repl) close() {
	if r.active < 0 {
		return
	}
	if err := r.dicts[r.active].Unload(); err != nil {
		slog.Warn("unloading dictionary", "path", r.dicts[r.active].Path(), "err", err)
	}
}
