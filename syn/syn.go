// Copyright 2025 Ian Lewis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package syn

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/transform"

	"github.com/ianlewis/sdreader/internal/folding"
	"github.com/ianlewis/sdreader/internal/index"
)

// Word is a .syn file entry.
type Word struct {
	// Word is the synonym word.
	Word string

	// OriginalWordIndex is the index into the .idx index.
	OriginalWordIndex uint32
}

type foldedWord struct {
	folded string
	word   *Word
}

func (w *foldedWord) String() string {
	return w.folded
}

// Options are options for the synonym data.
type Options struct {
	// Folder returns a [transform.Transformer] that performs folding (e.g.
	// case folding, whitespace folding, etc.) on synonyms and queries.
	Folder func() transform.Transformer
}

// DefaultOptions is the default options for a Syn.
var DefaultOptions = &Options{
	Folder: folding.Case,
}

// Syn is the synonym index. It is largely a map of synonym words to related
// index entries.
type Syn struct {
	// index is sorted by the folded word value.
	index *index.Index[*foldedWord]

	// foldTransformer performs folding on text.
	foldTransformer func() transform.Transformer
}

// New returns a new Syn by reading the data from r.
func New(r io.Reader, options *Options) (*Syn, error) {
	if options == nil {
		options = DefaultOptions
	}

	syn := Syn{
		foldTransformer: DefaultOptions.Folder,
	}
	if options.Folder != nil {
		syn.foldTransformer = options.Folder
	}

	s := NewScanner(r)

	var words []*foldedWord
	for s.Scan() {
		word := s.Word()
		folded, err := folding.String(syn.foldTransformer, word.Word)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptSyn, err)
		}

		words = append(words, &foldedWord{
			folded: folded,
			word:   word,
		})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scanning synonym index: %w", err)
	}

	// We need to re-sort based on the folded word.
	syn.index = index.NewSortedIndex(words)

	return &syn, nil
}

// NewFromIfoPath returns a new in-memory synonym index read from the .syn
// file next to the given .ifo file.
func NewFromIfoPath(ifoPath string, options *Options) (*Syn, error) {
	f, err := Open(ifoPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	synExt := strings.ToLower(filepath.Ext(f.Name()))
	if synExt == ".gz" || synExt == ".dz" {
		z, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("creating .syn gzip reader: %w", err)
		}
		defer z.Close()
		r = z
	}

	return New(r, options)
}

var synExts = []string{
	".syn",
	".syn.gz",
	".syn.dz",
	".SYN",
	".SYN.gz",
	".SYN.GZ",
	".SYN.DZ",
}

// Find returns the path of the .syn file next to the given .ifo file. The
// returned error wraps [fs.ErrNotExist] when the dictionary has no synonyms.
func Find(ifoPath string) (string, error) {
	baseName := strings.TrimSuffix(ifoPath, filepath.Ext(ifoPath))
	for _, ext := range synExts {
		p := baseName + ext
		_, err := os.Stat(p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("finding .syn file: %w", err)
		}
	}
	return "", fmt.Errorf("finding .syn file for %q: %w", baseName, fs.ErrNotExist)
}

// Open opens the .syn file given the path to the .ifo file.
func Open(ifoPath string) (*os.File, error) {
	p, err := Find(ifoPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("opening .syn file: %w", err)
	}
	return f, nil
}

// Len returns the number of synonyms.
func (syn *Syn) Len() int {
	return syn.index.Len()
}

// Search returns all synonyms equal to the query after folding.
func (syn *Syn) Search(query string) ([]*Word, error) {
	foldedQuery, err := folding.String(syn.foldTransformer, query)
	if err != nil {
		return nil, err
	}

	i, found := syn.index.Search(foldedQuery, index.Exact)
	if !found {
		return nil, nil
	}

	// Equal keys are adjacent. Widen to the whole run.
	for i > 0 && syn.index.At(i-1).folded == foldedQuery {
		i--
	}
	var words []*Word
	for ; i < syn.index.Len() && syn.index.At(i).folded == foldedQuery; i++ {
		words = append(words, syn.index.At(i).word)
	}

	return words, nil
}
