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

// Package dict implements reading .dict files.
//
// The .dict file may be stored as is or compressed in the dictzip format
// (.dict.dz). In both cases article data is addressed by offsets into the
// uncompressed data.
package dict

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ianlewis/sdreader/dictzip"
	"github.com/ianlewis/sdreader/idx"
)

var (
	errInvalidType = errors.New("invalid type")
	errInvalidData = errors.New("invalid word data")

	// ErrOutOfRange indicates a read past the end of the dictionary data.
	ErrOutOfRange = dictzip.ErrOutOfRange
)

// Dict represents a Stardict dictionary's dictionary data.
type Dict struct {
	r                io.ReaderAt
	sametypesequence []DataType

	// size is the length of the dictionary data or -1 if unknown.
	size int64
}

// Options are options for reading dictionary data.
type Options struct {
	// SameTypeSequence is the sametypesequence value from the .ifo file.
	SameTypeSequence []DataType
}

// DefaultOptions are the default options for a Dict.
var DefaultOptions = &Options{}

// New returns a new Dict from the given reader. If r is an [io.Closer] the
// Dict takes ownership of it and it is closed by the Dict's Close method.
func New(r io.ReaderAt, options *Options) (*Dict, error) {
	if options == nil {
		options = DefaultOptions
	}

	// verify sametypesequence
	for _, s := range options.SameTypeSequence {
		if !s.valid() {
			return nil, fmt.Errorf("%w: %v", errInvalidType, s)
		}
	}

	size, err := dataSize(r)
	if err != nil {
		return nil, err
	}

	return &Dict{
		r:                r,
		sametypesequence: options.SameTypeSequence,
		size:             size,
	}, nil
}

// dataSize returns the length of the data in r or -1 if r does not report
// one. Files report their size through Stat.
func dataSize(r io.ReaderAt) (int64, error) {
	switch v := r.(type) {
	case interface{ Size() int64 }:
		return v.Size(), nil
	case interface{ Stat() (fs.FileInfo, error) }:
		fi, err := v.Stat()
		if err != nil {
			return 0, fmt.Errorf("reading dictionary size: %w", err)
		}
		return fi.Size(), nil
	default:
		return -1, nil
	}
}

// NewFromIfoPath opens the .dict or .dict.dz file next to the given .ifo
// file. An uncompressed .dict file is preferred when both exist.
func NewFromIfoPath(ifoPath string, options *Options) (*Dict, error) {
	path, err := Find(ifoPath)
	if err != nil {
		return nil, err
	}

	var r io.ReaderAt
	if strings.ToLower(filepath.Ext(path)) == ".dz" {
		z, err := dictzip.Open(path)
		if err != nil {
			return nil, err
		}
		r = z
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening .dict file: %w", err)
		}
		r = f
	}

	d, err := New(r, options)
	if err != nil {
		if c, ok := r.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}
	return d, nil
}

var dictExts = []string{
	".dict",
	".DICT",
	".dict.dz",
	".DICT.dz",
	".DICT.DZ",
}

// Find returns the path of the dictionary file next to the given .ifo file.
// The returned error wraps [fs.ErrNotExist] when no dictionary file exists.
func Find(ifoPath string) (string, error) {
	baseName := strings.TrimSuffix(ifoPath, filepath.Ext(ifoPath))
	for _, ext := range dictExts {
		p := baseName + ext
		_, err := os.Stat(p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("finding .dict file: %w", err)
		}
	}
	return "", fmt.Errorf("finding .dict file for %q: %w", baseName, fs.ErrNotExist)
}

// Close closes the underlying file if it is an [io.Closer].
func (d *Dict) Close() error {
	c, ok := d.r.(io.Closer)
	if !ok {
		return nil
	}
	if err := c.Close(); err != nil {
		return fmt.Errorf("closing dict: %w", err)
	}
	return nil
}

// Read returns size bytes of dictionary data starting at offset.
func (d *Dict) Read(offset uint64, size uint32) ([]byte, error) {
	// TODO(#9): Support dictionary word offsets math.MaxInt64 > x < math.MaxUint64
	if offset > math.MaxInt64 {
		return nil, fmt.Errorf("%w: offset %d", ErrOutOfRange, offset)
	}

	// Sizes come from the index and are checked before allocating.
	//nolint:gosec // offset is bounds checked above.
	if d.size >= 0 && (int64(offset) > d.size || int64(size) > d.size-int64(offset)) {
		return nil, fmt.Errorf("%w: %d bytes at offset %d exceeds %d bytes of data", ErrOutOfRange, size, offset, d.size)
	}

	b := make([]byte, size)
	//nolint:gosec // offset size is bounds checked above.
	n, err := d.r.ReadAt(b, int64(offset))
	if n == len(b) {
		return b, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: read %d of %d bytes at offset %d", ErrOutOfRange, n, size, offset)
	}
	return nil, fmt.Errorf("reading dictionary: %w", err)
}

// Word retrieves the word for the given index entry from the
// dictionary.
func (d *Dict) Word(e *idx.Word) (*Word, error) {
	b, err := d.Read(e.Offset, e.Size)
	if err != nil {
		return nil, err
	}

	var wordData []*Data
	if len(d.sametypesequence) > 0 {
		// When sametypesequence is specified, that determines the type of the
		// word's data. The last item has no terminator or size.
		for i, t := range d.sametypesequence {
			last := i == len(d.sametypesequence)-1
			var data []byte
			data, b, err = splitData(t, b, last)
			if err != nil {
				return nil, err
			}
			wordData = append(wordData, &Data{
				Type: t,
				Data: data,
			})
		}
	} else {
		for len(b) > 0 {
			t := DataType(b[0])
			var data []byte
			data, b, err = splitData(t, b[1:], false)
			if err != nil {
				return nil, err
			}
			wordData = append(wordData, &Data{
				Type: t,
				Data: data,
			})
		}
	}

	return &Word{
		Data: wordData,
	}, nil
}

// splitData returns the data of type t at the start of b and the remainder.
func splitData(t DataType, b []byte, last bool) ([]byte, []byte, error) {
	if last {
		return b, nil, nil
	}

	if t.isString() {
		// Data is a string like sequence. The final item may omit the
		// terminator.
		i := bytes.IndexByte(b, 0)
		if i < 0 {
			return b, nil, nil
		}
		return b[:i], b[i+1:], nil
	}

	// Data is a file like sequence.
	if len(b) < 4 {
		return nil, nil, fmt.Errorf("%w: missing size for type %v", errInvalidData, t)
	}
	size := binary.BigEndian.Uint32(b)
	if uint64(size) > uint64(len(b)-4) {
		return nil, nil, fmt.Errorf("%w: size %d exceeds data", errInvalidData, size)
	}
	return b[4 : 4+size], b[4+size:], nil
}
