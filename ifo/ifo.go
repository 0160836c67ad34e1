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

// Package ifo implements reading .ifo files.
//
// The .ifo file holds the dictionary metadata as key=value lines. The first
// line is a fixed marker ("StarDict's dict ifo file").
package ifo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidLine indicates a non-empty line that is not a key=value pair.
var ErrInvalidLine = errors.New("invalid line")

// Ifo is the raw contents of an .ifo file.
type Ifo struct {
	magic    string
	metadata map[string]string
}

// New reads an .ifo file from r.
func New(r io.Reader) (*Ifo, error) {
	i := &Ifo{
		metadata: map[string]string{},
	}

	s := bufio.NewScanner(r)
	if s.Scan() {
		i.magic = s.Text()
	}

	for n := 2; s.Scan(); n++ {
		line := s.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%w: line %d: %q", ErrInvalidLine, n, line)
		}
		i.metadata[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("reading ifo: %w", err)
	}

	return i, nil
}

// Magic returns the first line of the file.
func (i *Ifo) Magic() string {
	return i.magic
}

// Value returns the value for key or an empty string.
func (i *Ifo) Value(key string) string {
	return i.metadata[key]
}
