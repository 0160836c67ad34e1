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

package syn

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// ErrCorruptSyn indicates a malformed .syn record.
var ErrCorruptSyn = errors.New("corrupt synonym index")

// Scanner scans a synonym index from start to end.
type Scanner struct {
	r io.Reader
	s *bufio.Scanner
}

// NewScanner return a new synonym index scanner that scans the index from
// start to end. If r is an [io.Closer] the Scanner assumes ownership of it and
// it should be closed with the Close method.
func NewScanner(r io.Reader) *Scanner {
	s := &Scanner{
		r: r,
		s: bufio.NewScanner(r),
	}
	s.s.Split(splitIndex)
	return s
}

// Scan advances the index to the next index entry. It returns false if the
// scan stops either by reaching the end of the index or an error.
func (s *Scanner) Scan() bool {
	return s.s.Scan()
}

// Err returns the first error encountered.
func (s *Scanner) Err() error {
	//nolint:wrapcheck // split errors are already wrapped.
	return s.s.Err()
}

// Close closes the underlying reader.
func (s *Scanner) Close() error {
	c, ok := s.r.(io.Closer)
	if !ok {
		return nil
	}
	if err := c.Close(); err != nil {
		return fmt.Errorf("closing syn file: %w", err)
	}
	return nil
}

// Word gets the current entry in the index.
func (s *Scanner) Word() *Word {
	var e Word
	b := s.s.Bytes()
	if i := bytes.IndexByte(b, 0); i >= 0 {
		e.Word = string(b[0:i])
		e.OriginalWordIndex = binary.BigEndian.Uint32(b[i+1:])
	}

	return &e
}

// splitIndex splits a synonym entry: a null terminated word followed by a
// 32 bit index into the .idx entries.
func splitIndex(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		tokenSize := i + 5
		if len(data) >= tokenSize {
			if !utf8.Valid(data[:i]) {
				return 0, nil, fmt.Errorf("%w: word is not valid utf-8", ErrCorruptSyn)
			}
			return tokenSize, data[:tokenSize], nil
		}
	}

	if atEOF {
		return 0, nil, fmt.Errorf("%w: truncated record", ErrCorruptSyn)
	}

	// Request more data.
	return 0, nil, nil
}
