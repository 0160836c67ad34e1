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

package stardict

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"golang.org/x/text/transform"

	"github.com/ianlewis/sdreader/dict"
	"github.com/ianlewis/sdreader/dictzip"
	"github.com/ianlewis/sdreader/idx"
	"github.com/ianlewis/sdreader/ifo"
	"github.com/ianlewis/sdreader/syn"
)

var (
	// ErrNotLoaded indicates a lookup on a dictionary whose index is not
	// loaded.
	ErrNotLoaded = errors.New("dictionary not loaded")

	// ErrMissingFile indicates that a required dictionary file does not
	// exist.
	ErrMissingFile = fs.ErrNotExist

	// ErrUnsupportedFormat indicates an unsupported version or
	// sametypesequence, or missing required metadata.
	ErrUnsupportedFormat = ifo.ErrUnsupportedFormat

	// ErrBadContainerHeader indicates a malformed .dict.dz header.
	ErrBadContainerHeader = dictzip.ErrBadHeader

	// ErrCorruptIndex indicates a malformed .idx file or one whose entry
	// count does not match the metadata.
	ErrCorruptIndex = idx.ErrCorruptIndex

	// ErrOutOfRange indicates an entry position or content range outside of
	// the dictionary.
	ErrOutOfRange = dictzip.ErrOutOfRange
)

// Mode is a search mode.
type Mode = idx.Mode

const (
	// Exact matches entries equal to the query.
	Exact = idx.Exact

	// Prefix matches the first entry that starts with the query.
	Prefix = idx.Prefix
)

// Options are options for opening a dictionary.
type Options struct {
	// Folder returns a [transform.Transformer] used to fold index words and
	// queries before comparison. The default is Unicode case folding.
	Folder func() transform.Transformer

	// Sort sorts the index after loading it. By default the .idx file order
	// is trusted.
	Sort bool
}

// DefaultOptions are the default options for a Stardict.
var DefaultOptions = &Options{}

// Stardict is a stardict dictionary. Metadata is available as soon as the
// dictionary is created. The index and content must be loaded with Load
// before lookups. A Stardict is not safe for concurrent use.
type Stardict struct {
	ifoPath  string
	metadata *ifo.Metadata
	options  Options

	idx  *idx.Idx
	dict *dict.Dict
	syn  *syn.Syn
}

// New reads the metadata of the dictionary at path and checks that its index
// and content files exist. The path may be the .ifo file or the base path
// without an extension. The index is not loaded.
func New(path string, options *Options) (*Stardict, error) {
	if options == nil {
		options = DefaultOptions
	}

	ifoPath := path
	if strings.ToLower(filepath.Ext(path)) != ".ifo" {
		ifoPath = path + ".ifo"
	}

	m, err := ifo.Load(ifoPath)
	if err != nil {
		return nil, err
	}

	if _, err := idx.Find(ifoPath); err != nil {
		return nil, err
	}
	if _, err := dict.Find(ifoPath); err != nil {
		return nil, err
	}

	return &Stardict{
		ifoPath:  ifoPath,
		metadata: m,
		options:  *options,
	}, nil
}

// Open opens and loads the dictionary at path.
func Open(path string, options *Options) (*Stardict, error) {
	s, err := New(path, options)
	if err != nil {
		return nil, err
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Find returns the paths of .ifo files under root whose index and content
// files are also present.
func Find(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.ToLower(filepath.Ext(d.Name())) != ".ifo" {
			return nil
		}
		if _, err := idx.Find(path); err != nil {
			//nolint:nilerr // incomplete dictionaries are skipped.
			return nil
		}
		if _, err := dict.Find(path); err != nil {
			//nolint:nilerr // incomplete dictionaries are skipped.
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("finding dictionaries in %q: %w", root, err)
	}
	return paths, nil
}

// OpenAll opens and loads all dictionaries under a directory. This function
// will return all successfully opened dictionaries along with any errors that
// occurred.
func OpenAll(root string, options *Options) ([]*Stardict, []error) {
	paths, err := Find(root)
	if err != nil {
		return nil, []error{err}
	}

	var dicts []*Stardict
	var errs []error
	for _, p := range paths {
		s, err := Open(p, options)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		dicts = append(dicts, s)
	}
	return dicts, errs
}

// Load reads the index and opens the dictionary content. On failure the
// dictionary is left unloaded. Calling Load on a loaded dictionary does
// nothing.
func (s *Stardict) Load() error {
	if s.Loaded() {
		return nil
	}

	index, err := idx.NewFromIfoPath(s.ifoPath, &idx.Options{
		OffsetBits: s.metadata.IdxOffsetBits(),
		Folder:     s.options.Folder,
		Sort:       s.options.Sort,
	})
	if err != nil {
		return err
	}
	if int64(index.Len()) != s.metadata.WordCount() {
		return fmt.Errorf("%w: index has %d entries, wordcount is %d",
			ErrCorruptIndex, index.Len(), s.metadata.WordCount())
	}

	var sametypesequence []dict.DataType
	for _, t := range []byte(s.metadata.SameTypeSequence()) {
		sametypesequence = append(sametypesequence, dict.DataType(t))
	}
	d, err := dict.NewFromIfoPath(s.ifoPath, &dict.Options{
		SameTypeSequence: sametypesequence,
	})
	if err != nil {
		return err
	}

	// The .syn file is optional.
	sy, err := syn.NewFromIfoPath(s.ifoPath, &syn.Options{
		Folder: s.options.Folder,
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		_ = d.Close()
		return err
	}

	s.idx = index
	s.dict = d
	s.syn = sy
	return nil
}

// Unload releases the index and closes the dictionary content. Lookups fail
// with [ErrNotLoaded] until Load is called again.
func (s *Stardict) Unload() error {
	var err error
	if s.dict != nil {
		err = s.dict.Close()
	}
	s.idx = nil
	s.dict = nil
	s.syn = nil
	return err
}

// Close unloads the dictionary.
func (s *Stardict) Close() error {
	return s.Unload()
}

// Loaded returns whether the index is loaded.
func (s *Stardict) Loaded() bool {
	return s.idx != nil
}

// Path returns the path to the dictionary's .ifo file.
func (s *Stardict) Path() string {
	return s.ifoPath
}

// Bookname returns the dictionary name.
func (s *Stardict) Bookname() string {
	return s.metadata.Bookname()
}

// Date returns the dictionary date.
func (s *Stardict) Date() string {
	return s.metadata.Date()
}

// Description returns the dictionary description.
func (s *Stardict) Description() string {
	return s.metadata.Description()
}

// Author returns the dictionary author.
func (s *Stardict) Author() string {
	return s.metadata.Author()
}

// Email returns the dictionary contact email.
func (s *Stardict) Email() string {
	return s.metadata.Email()
}

// Website returns the dictionary website url.
func (s *Stardict) Website() string {
	return s.metadata.Website()
}

// WordCount returns the dictionary word count from the .ifo file.
func (s *Stardict) WordCount() int64 {
	return s.metadata.WordCount()
}

// Version returns the dictionary format version.
func (s *Stardict) Version() string {
	return s.metadata.Version()
}

// EntryCount returns the number of entries in the loaded index.
func (s *Stardict) EntryCount() (int, error) {
	if !s.Loaded() {
		return 0, ErrNotLoaded
	}
	return s.idx.Len(), nil
}

// WordAt returns the headword at index position i.
func (s *Stardict) WordAt(i int) (string, error) {
	w, err := s.word(i)
	if err != nil {
		return "", err
	}
	return w.Word, nil
}

// Search searches the index for word. Exact returns the position of an entry
// equal to word. Prefix returns the smallest position whose entry starts with
// word.
func (s *Stardict) Search(word string, mode Mode) (int, bool, error) {
	if !s.Loaded() {
		return 0, false, ErrNotLoaded
	}
	i, found, err := s.idx.Search(word, mode)
	if err != nil {
		return 0, false, fmt.Errorf("searching %q: %w", word, err)
	}
	return i, found, nil
}

// ContentFor returns the raw article bytes for the entry at position i.
func (s *Stardict) ContentFor(i int) ([]byte, error) {
	w, err := s.word(i)
	if err != nil {
		return nil, err
	}
	return s.dict.Read(w.Offset, w.Size)
}

// Entry returns the decoded entry at position i.
func (s *Stardict) Entry(i int) (*Entry, error) {
	w, err := s.word(i)
	if err != nil {
		return nil, err
	}
	d, err := s.dict.Word(w)
	if err != nil {
		return nil, fmt.Errorf("reading entry %q: %w", w.Word, err)
	}
	return &Entry{
		word: w.Word,
		data: d.Data,
	}, nil
}

// Synonyms returns the index positions of the entries that word is a synonym
// of. It returns nil if the dictionary has no .syn file.
func (s *Stardict) Synonyms(word string) ([]int, error) {
	if !s.Loaded() {
		return nil, ErrNotLoaded
	}
	if s.syn == nil {
		return nil, nil
	}

	words, err := s.syn.Search(word)
	if err != nil {
		return nil, fmt.Errorf("searching synonyms for %q: %w", word, err)
	}
	var positions []int
	for _, w := range words {
		// Synonyms refer to .idx file positions which move if the index
		// was sorted.
		i, ok := s.idx.Position(int(w.OriginalWordIndex))
		if !ok {
			return nil, fmt.Errorf("%w: synonym %q points to entry %d", ErrOutOfRange, w.Word, w.OriginalWordIndex)
		}
		positions = append(positions, i)
	}
	return positions, nil
}

func (s *Stardict) word(i int) (*idx.Word, error) {
	if !s.Loaded() {
		return nil, ErrNotLoaded
	}
	if i < 0 || i >= s.idx.Len() {
		return nil, fmt.Errorf("%w: entry %d of %d", ErrOutOfRange, i, s.idx.Len())
	}
	return s.idx.Word(i), nil
}
