// Copyright 2024 Google LLC
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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"

	"github.com/ianlewis/sdreader/idx"
	"github.com/ianlewis/sdreader/internal/testutil"
)

// TestIdx_Search tests Idx.Search.
func TestIdx_Search(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		query    string
		mode     idx.Mode
		idxWords []*idx.Word

		// expected lists the acceptable results. nil means not found.
		expected []int
	}{
		{
			name:     "empty index",
			query:    "foo",
			mode:     idx.Exact,
			idxWords: []*idx.Word{},
		},
		{
			name:     "empty index prefix",
			query:    "foo",
			mode:     idx.Prefix,
			idxWords: []*idx.Word{},
		},
		{
			name:     "empty query",
			query:    "",
			mode:     idx.Exact,
			idxWords: testutil.Words("bar", "baz", "foo"),
		},
		{
			name:     "empty query prefix",
			query:    "",
			mode:     idx.Prefix,
			idxWords: testutil.Words("bar", "baz", "foo"),
		},
		{
			name:     "no match",
			query:    "hoge",
			mode:     idx.Exact,
			idxWords: testutil.Words("bar", "baz", "foo"),
		},
		{
			name:     "single match first",
			query:    "bar",
			mode:     idx.Exact,
			idxWords: testutil.Words("bar", "baz", "foo"),
			expected: []int{0},
		},
		{
			name:     "single match last",
			query:    "foo",
			mode:     idx.Exact,
			idxWords: testutil.Words("bar", "baz", "foo"),
			expected: []int{2},
		},
		{
			name:     "single match middle",
			query:    "hoge",
			mode:     idx.Exact,
			idxWords: testutil.Words("bar", "baz", "foo", "fuga", "hoge", "pico"),
			expected: []int{4},
		},
		{
			name:     "multi-match",
			query:    "hoge",
			mode:     idx.Exact,
			idxWords: testutil.Words("bar", "baz", "foo", "fuga", "hoge", "hoge", "hoge", "pico"),
			expected: []int{4, 5, 6},
		},
		{
			name:     "folding",
			query:    "hoge",
			mode:     idx.Exact,
			idxWords: testutil.Words("bar", "baz", "foo", "fuga", "Hoge", "pico"),
			expected: []int{4},
		},
		{
			name:     "folding query",
			query:    "HOGE",
			mode:     idx.Exact,
			idxWords: testutil.Words("bar", "baz", "foo", "fuga", "hoge", "pico"),
			expected: []int{4},
		},
		{
			name:     "folding german",
			query:    "GRÜSSEN",
			mode:     idx.Exact,
			idxWords: testutil.Words("bar", "baz", "foo", "fuga", "grüßen", "Hoge", "pico"),
			expected: []int{4},
		},
		{
			name:     "prefix leftmost",
			query:    "ba",
			mode:     idx.Prefix,
			idxWords: testutil.Words("apple", "Banana", "band", "Bandana", "cherry"),
			expected: []int{1},
		},
		{
			name:     "prefix duplicates",
			query:    "hog",
			mode:     idx.Prefix,
			idxWords: testutil.Words("bar", "hoge", "Hoge", "hoge", "hogehoge", "pico"),
			expected: []int{1},
		},
		{
			name:     "prefix is whole word",
			query:    "band",
			mode:     idx.Prefix,
			idxWords: testutil.Words("apple", "Banana", "band", "Bandana", "cherry"),
			expected: []int{2},
		},
		{
			name:     "prefix no match",
			query:    "z",
			mode:     idx.Prefix,
			idxWords: testutil.Words("apple", "Banana", "cherry"),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			index, err := idx.Parse(testutil.MakeIndex(test.idxWords, 32), nil)
			if err != nil {
				t.Fatalf("idx.Parse: %v", err)
			}

			i, found, err := index.Search(test.query, test.mode)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if want, got := test.expected != nil, found; want != got {
				t.Fatalf("Search found: want %v, got %v (%d)", want, got, i)
			}
			if !found {
				return
			}
			for _, want := range test.expected {
				if i == want {
					return
				}
			}
			t.Fatalf("Search: got %d, want one of %v", i, test.expected)
		})
	}
}

// TestIdx_Search_everyWord checks that every word in the index can be found
// by an exact search.
func TestIdx_Search_everyWord(t *testing.T) {
	t.Parallel()

	words := testutil.Words("a", "A", "aardvark", "Abacus", "abbey", "b", "Ba", "bA", "cat", "Cat", "dog", "zebra", "épée")
	index, err := idx.Parse(testutil.MakeIndex(words, 32), nil)
	if err != nil {
		t.Fatalf("idx.Parse: %v", err)
	}

	for i := range index.Len() {
		w := index.Word(i).Word
		j, found, err := index.Search(w, idx.Exact)
		if err != nil {
			t.Fatalf("Search(%q): %v", w, err)
		}
		if !found {
			t.Errorf("Search(%q): not found", w)
			continue
		}
		if got := index.Word(j).Word; !strings.EqualFold(got, w) {
			t.Errorf("Search(%q): got %q at %d", w, got, j)
		}
	}
}

func TestIdx_entries(t *testing.T) {
	t.Parallel()

	words := []*idx.Word{
		{Word: "apple", Offset: 0, Size: 5},
		{Word: "Banana", Offset: 5, Size: 6},
		{Word: "cherry", Offset: 11, Size: 6},
	}

	for _, bits := range []int{32, 64} {
		index, err := idx.Parse(testutil.MakeIndex(words, bits), &idx.Options{
			OffsetBits: bits,
		})
		if err != nil {
			t.Fatalf("idx.Parse(%d): %v", bits, err)
		}

		var got []*idx.Word
		for i := range index.Len() {
			got = append(got, index.Word(i))
		}
		if diff := cmp.Diff(words, got); diff != "" {
			t.Fatalf("entries %d bit (-want, +got):\n%s", bits, diff)
		}
	}
}

func TestIdx_sort(t *testing.T) {
	t.Parallel()

	words := testutil.Words("cherry", "Banana", "apple", "banana")

	unsorted, err := idx.Parse(testutil.MakeIndex(words, 32), nil)
	if err != nil {
		t.Fatalf("idx.Parse: %v", err)
	}
	if want, got := "cherry", unsorted.Word(0).Word; want != got {
		t.Fatalf("on-disk order: want %q, got %q", want, got)
	}

	sorted, err := idx.Parse(testutil.MakeIndex(words, 32), &idx.Options{
		Sort: true,
	})
	if err != nil {
		t.Fatalf("idx.Parse: %v", err)
	}

	var got []string
	for i := range sorted.Len() {
		got = append(got, sorted.Word(i).Word)
	}
	if diff := cmp.Diff([]string{"apple", "Banana", "banana", "cherry"}, got); diff != "" {
		t.Fatalf("sorted (-want, +got):\n%s", diff)
	}

	i, found, err := sorted.Search("b", idx.Prefix)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !found || i != 1 {
		t.Fatalf("Search: got (%d, %v), want (1, true)", i, found)
	}

	// Each file position maps to where its entry was sorted.
	for filePos, w := range words {
		pos, ok := sorted.Position(filePos)
		if !ok {
			t.Fatalf("Position(%d): not found", filePos)
		}
		if want, got := w.Word, sorted.Word(pos).Word; want != got {
			t.Fatalf("Word(Position(%d)): want %q, got %q", filePos, want, got)
		}

		unsortedPos, ok := unsorted.Position(filePos)
		if !ok || unsortedPos != filePos {
			t.Fatalf("unsorted Position(%d): got (%d, %v), want (%d, true)", filePos, unsortedPos, ok, filePos)
		}
	}
	if _, ok := sorted.Position(len(words)); ok {
		t.Fatalf("Position(%d): unexpected ok", len(words))
	}
}

func TestParse_corrupt(t *testing.T) {
	t.Parallel()

	b := testutil.MakeIndex(testutil.Words("apple", "banana"), 32)
	_, err := idx.Parse(b[:len(b)-1], nil)
	if !errors.Is(err, idx.ErrCorruptIndex) {
		t.Fatalf("Parse: got %v, want %v", err, idx.ErrCorruptIndex)
	}
}

func TestNewFromIfoPath(t *testing.T) {
	t.Parallel()

	words := []*idx.Word{
		{Word: "apple", Offset: 0, Size: 5},
		{Word: "banana", Offset: 5, Size: 6},
	}
	raw := testutil.MakeIndex(words, 32)

	var gz bytes.Buffer
	z := gzip.NewWriter(&gz)
	if _, err := z.Write(raw); err != nil {
		t.Fatal(err)
	}
	if err := z.Close(); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		ext  string
		data []byte
	}{
		{
			name: "idx",
			ext:  ".idx",
			data: raw,
		},
		{
			name: "upper case",
			ext:  ".IDX",
			data: raw,
		},
		{
			name: "gzip",
			ext:  ".idx.gz",
			data: gz.Bytes(),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, "dictionary"+test.ext), test.data, 0o600); err != nil {
				t.Fatal(err)
			}

			index, err := idx.NewFromIfoPath(filepath.Join(dir, "dictionary.ifo"), nil)
			if err != nil {
				t.Fatalf("NewFromIfoPath: %v", err)
			}

			var got []*idx.Word
			for i := range index.Len() {
				got = append(got, index.Word(i))
			}
			if diff := cmp.Diff(words, got); diff != "" {
				t.Fatalf("entries (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestNewFromIfoPath_missing(t *testing.T) {
	t.Parallel()

	_, err := idx.NewFromIfoPath(filepath.Join(t.TempDir(), "dictionary.ifo"), nil)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("NewFromIfoPath: got %v, want %v", err, os.ErrNotExist)
	}
}
