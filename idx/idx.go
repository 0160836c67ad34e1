// Copyright 2021 Google LLC
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

package idx

import (
	"bytes"
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

// Mode selects exact or prefix matching for Search.
type Mode = index.Mode

const (
	// Exact matches words equal to the query after folding.
	Exact = index.Exact

	// Prefix matches the first word that begins with the query after
	// folding.
	Prefix = index.Prefix
)

// Word is an .idx file entry.
type Word struct {
	Word   string
	Offset uint64
	Size   uint32
}

type foldedWord struct {
	folded string
	word   *Word

	// position is the entry's position in the .idx file.
	position int
}

func (w *foldedWord) String() string {
	return w.folded
}

// Options are options for the idx data.
type Options struct {
	// OffsetBits are the number of bits in the offset fields. Valid values for
	// OffsetBits are either 32 or 64.
	OffsetBits int

	// Folder returns a [transform.Transformer] that performs folding (e.g.
	// case folding, whitespace folding, etc.) on index entries and queries.
	Folder func() transform.Transformer

	// Sort sorts the index by folded word after reading it. By default the
	// on-disk order is trusted.
	Sort bool
}

// DefaultOptions is the default options for an Idx.
var DefaultOptions = &Options{
	OffsetBits: 32,
	Folder:     folding.Case,
}

// Idx is an in-memory index of .idx entries. Only titles and offsets are held
// in memory. Article data stays in the .dict file.
type Idx struct {
	// index is ordered by the folded word value.
	index *index.Index[*foldedWord]

	// foldTransformer performs folding on text.
	foldTransformer func() transform.Transformer

	// positions maps .idx file positions to index positions. It is nil when
	// the index keeps the file order.
	positions []int
}

// New returns a new in-memory index by reading the data from r.
func New(r io.Reader, options *Options) (*Idx, error) {
	if options == nil {
		options = DefaultOptions
	}

	idx := &Idx{
		foldTransformer: DefaultOptions.Folder,
	}
	if options.Folder != nil {
		idx.foldTransformer = options.Folder
	}

	offsetBits := options.OffsetBits
	if offsetBits == 0 {
		offsetBits = DefaultOptions.OffsetBits
	}
	s, err := NewScanner(r, &ScannerOptions{
		OffsetBits: offsetBits,
	})
	if err != nil {
		return nil, err
	}

	var words []*foldedWord
	for s.Scan() {
		word := s.Word()
		folded, err := folding.String(idx.foldTransformer, word.Word)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptIndex, err)
		}

		words = append(words, &foldedWord{
			folded:   folded,
			word:     word,
			position: len(words),
		})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scanning index: %w", err)
	}

	if options.Sort {
		idx.index = index.NewSortedIndex(words)
		idx.positions = make([]int, len(words))
		for i := range idx.index.Len() {
			idx.positions[idx.index.At(i).position] = i
		}
	} else {
		idx.index = index.NewIndex(words)
	}

	return idx, nil
}

// Parse returns a new in-memory index from the raw .idx file contents.
func Parse(b []byte, options *Options) (*Idx, error) {
	return New(bytes.NewReader(b), options)
}

// NewFromIfoPath returns a new in-memory index read from the .idx file next
// to the given .ifo file.
func NewFromIfoPath(ifoPath string, options *Options) (*Idx, error) {
	f, err := Open(ifoPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.ToLower(filepath.Ext(f.Name())) == ".gz" {
		z, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("creating .idx gzip reader: %w", err)
		}
		defer z.Close()
		r = z
	}

	idx, err := New(r, options)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", f.Name(), err)
	}
	return idx, nil
}

var idxExts = []string{
	".idx",
	".idx.gz",
	".IDX",
	".IDX.gz",
	".IDX.GZ",
}

// Find returns the path of the .idx file next to the given .ifo file. The
// returned error wraps [fs.ErrNotExist] when no index file exists.
func Find(ifoPath string) (string, error) {
	baseName := strings.TrimSuffix(ifoPath, filepath.Ext(ifoPath))
	for _, ext := range idxExts {
		p := baseName + ext
		_, err := os.Stat(p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("finding .idx file: %w", err)
		}
	}
	return "", fmt.Errorf("finding .idx file for %q: %w", baseName, fs.ErrNotExist)
}

// Open opens the .idx file given the path to the .ifo file.
func Open(ifoPath string) (*os.File, error) {
	p, err := Find(ifoPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("opening .idx file: %w", err)
	}
	return f, nil
}

// Len returns the number of entries in the index.
func (idx *Idx) Len() int {
	return idx.index.Len()
}

// Word returns the entry at position i. It panics if i is out of range.
func (idx *Idx) Word(i int) *Word {
	return idx.index.At(i).word
}

// Position returns the index position of the entry at position i in the .idx
// file. Positions differ only when the index was sorted. Synonym records refer
// to entries by their .idx file position.
func (idx *Idx) Position(i int) (int, bool) {
	if i < 0 || i >= idx.Len() {
		return 0, false
	}
	if idx.positions == nil {
		return i, true
	}
	return idx.positions[i], true
}

// Search folds the query and performs a binary search of the index. It
// returns the position of the matching entry and whether one was found.
func (idx *Idx) Search(query string, mode Mode) (int, bool, error) {
	foldedQuery, err := folding.String(idx.foldTransformer, query)
	if err != nil {
		return 0, false, err
	}

	i, found := idx.index.Search(foldedQuery, mode)
	return i, found, nil
}
