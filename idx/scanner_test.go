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

package idx_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ianlewis/sdreader/idx"
	"github.com/ianlewis/sdreader/internal/testutil"
)

// TestScanner tests Scanner.
func TestScanner(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		expected      []*idx.Word
		idxoffsetbits int
	}{
		{
			name: "multi 64 bit",
			expected: []*idx.Word{
				{
					Word:   "hoge",
					Offset: 123,
					Size:   456,
				},
				{
					Word:   "fuga pico",
					Offset: 12,
					Size:   45,
				},
			},
			idxoffsetbits: 64,
		},
		{
			name: "multi 32 bit",
			expected: []*idx.Word{
				{
					Word:   "hoge",
					Offset: 123,
					Size:   456,
				},
				{
					Word:   "ユニコード",
					Offset: 12,
					Size:   45,
				},
			},
			idxoffsetbits: 32,
		},
		{
			name:          "empty",
			expected:      nil,
			idxoffsetbits: 32,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			b := testutil.MakeIndex(test.expected, test.idxoffsetbits)

			s, err := idx.NewScanner(bytes.NewReader(b), &idx.ScannerOptions{
				OffsetBits: test.idxoffsetbits,
			})
			if err != nil {
				t.Fatalf("NewScanner: %v", err)
			}
			defer s.Close()

			var words []*idx.Word
			for s.Scan() {
				words = append(words, s.Word())
			}
			if err := s.Err(); err != nil {
				t.Fatalf("Scan: %v", err)
			}

			if diff := cmp.Diff(test.expected, words); diff != "" {
				t.Fatalf("Scan (-want, +got):\n%s", diff)
			}
		})
	}
}

// TestScanner_corrupt tests that malformed records fail with ErrCorruptIndex.
func TestScanner_corrupt(t *testing.T) {
	t.Parallel()

	valid := testutil.MakeIndex([]*idx.Word{{Word: "apple", Offset: 1, Size: 2}}, 32)

	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "truncated numbers",
			data: valid[:len(valid)-3],
		},
		{
			name: "terminator only",
			data: append(append([]byte{}, valid...), 'b', 0),
		},
		{
			name: "unterminated word",
			data: append(append([]byte{}, valid...), 'b', 'a'),
		},
		{
			name: "invalid utf-8",
			data: append([]byte{'a', 0xff, 0}, make([]byte, 8)...),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			s, err := idx.NewScanner(bytes.NewReader(test.data), nil)
			if err != nil {
				t.Fatalf("NewScanner: %v", err)
			}
			//nolint:revive // drain the scanner.
			for s.Scan() {
			}
			if err := s.Err(); !errors.Is(err, idx.ErrCorruptIndex) {
				t.Fatalf("Err: got %v, want %v", err, idx.ErrCorruptIndex)
			}
		})
	}
}

func TestNewScanner_invalidOffsetBits(t *testing.T) {
	t.Parallel()

	_, err := idx.NewScanner(bytes.NewReader(nil), &idx.ScannerOptions{
		OffsetBits: 16,
	})
	if !errors.Is(err, idx.ErrInvalidIdxOffset) {
		t.Fatalf("NewScanner: got %v, want %v", err, idx.ErrInvalidIdxOffset)
	}
}
