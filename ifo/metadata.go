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

package ifo

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// ErrUnsupportedFormat indicates a dictionary version, layout or metadata
// that this package does not read.
var ErrUnsupportedFormat = errors.New("unsupported format")

// SameTypeSequence is the only supported sametypesequence. Every article is a
// single item of Pango markup.
const SameTypeSequence = "g"

// Metadata is the validated dictionary metadata.
type Metadata struct {
	version          string
	bookname         string
	date             string
	wordcount        int64
	synwordcount     int64
	idxfilesize      int64
	idxoffsetbits    int64
	sametypesequence string
	author           string
	email            string
	website          string
	description      string
}

// Load reads and validates the .ifo file at path. The returned error wraps
// [os.ErrNotExist] if the file does not exist.
func Load(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening .ifo file: %w", err)
	}
	defer f.Close()

	i, err := New(f)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}

	m, err := Parse(i)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	return m, nil
}

// Parse validates the contents of an .ifo file.
func Parse(i *Ifo) (*Metadata, error) {
	m := &Metadata{
		idxoffsetbits: 32,
	}

	m.version = i.Value("version")
	switch m.version {
	case "2.4.2":
	case "3.0.0":
	default:
		return nil, fmt.Errorf("%w: version %q", ErrUnsupportedFormat, m.version)
	}

	m.sametypesequence = i.Value("sametypesequence")
	if m.sametypesequence != SameTypeSequence {
		return nil, fmt.Errorf("%w: sametypesequence %q", ErrUnsupportedFormat, m.sametypesequence)
	}

	for _, key := range []string{"bookname", "date", "wordcount"} {
		if i.Value(key) == "" {
			return nil, fmt.Errorf("%w: missing %s", ErrUnsupportedFormat, key)
		}
	}
	m.bookname = i.Value("bookname")
	m.date = i.Value("date")

	var err error
	m.wordcount, err = parseCount(i, "wordcount")
	if err != nil {
		return nil, err
	}
	m.synwordcount, err = parseCount(i, "synwordcount")
	if err != nil {
		return nil, err
	}
	m.idxfilesize, err = parseCount(i, "idxfilesize")
	if err != nil {
		return nil, err
	}

	if i.Value("idxoffsetbits") != "" && m.version == "3.0.0" {
		m.idxoffsetbits, err = parseCount(i, "idxoffsetbits")
		if err != nil {
			return nil, err
		}
		if m.idxoffsetbits != 32 && m.idxoffsetbits != 64 {
			return nil, fmt.Errorf("%w: idxoffsetbits %d", ErrUnsupportedFormat, m.idxoffsetbits)
		}
	}

	m.author = i.Value("author")
	m.email = i.Value("email")
	m.website = i.Value("website")
	m.description = i.Value("description")

	return m, nil
}

// parseCount parses an optional non-negative integer value. Missing values
// are zero.
func parseCount(i *Ifo, key string) (int64, error) {
	v := i.Value(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: bad %s %q", ErrUnsupportedFormat, key, v)
	}
	return n, nil
}

// Version returns the dictionary format version.
func (m *Metadata) Version() string {
	return m.version
}

// Bookname returns the dictionary name.
func (m *Metadata) Bookname() string {
	return m.bookname
}

// Date returns the dictionary date.
func (m *Metadata) Date() string {
	return m.date
}

// WordCount returns the number of entries in the .idx file.
func (m *Metadata) WordCount() int64 {
	return m.wordcount
}

// SynWordCount returns the number of entries in the .syn file.
func (m *Metadata) SynWordCount() int64 {
	return m.synwordcount
}

// IdxFileSize returns the declared size of the .idx file.
func (m *Metadata) IdxFileSize() int64 {
	return m.idxfilesize
}

// IdxOffsetBits returns the size of .idx offsets in bits.
func (m *Metadata) IdxOffsetBits() int {
	return int(m.idxoffsetbits)
}

// SameTypeSequence returns the sametypesequence value.
func (m *Metadata) SameTypeSequence() string {
	return m.sametypesequence
}

// Author returns the dictionary author.
func (m *Metadata) Author() string {
	return m.author
}

// Email returns the dictionary contact email.
func (m *Metadata) Email() string {
	return m.email
}

// Website returns the dictionary website url.
func (m *Metadata) Website() string {
	return m.website
}

// Description returns the dictionary description.
func (m *Metadata) Description() string {
	return m.description
}
