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

package dictzip_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	godictzip "github.com/ianlewis/go-dictzip"

	"github.com/ianlewis/sdreader/dictzip"
	"github.com/ianlewis/sdreader/internal/testutil"
)

func TestReader_Read(t *testing.T) {
	t.Parallel()

	b := testutil.MakeDictZip(t, []byte("abcdefgh"), &testutil.DictZipOptions{
		ChunkSize: 4,
	})
	z, err := dictzip.NewReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	if want, got := 4, z.ChunkSize(); want != got {
		t.Fatalf("ChunkSize: want %d, got %d", want, got)
	}
	if want, got := 2, z.ChunkCount(); want != got {
		t.Fatalf("ChunkCount: want %d, got %d", want, got)
	}

	tests := []struct {
		offset   int64
		size     int
		expected string
	}{
		{offset: 0, size: 4, expected: "abcd"},
		{offset: 2, size: 4, expected: "cdef"},
		{offset: 4, size: 4, expected: "efgh"},
		{offset: 3, size: 1, expected: "d"},
		{offset: 0, size: 8, expected: "abcdefgh"},
		{offset: 7, size: 0, expected: ""},
	}
	for _, test := range tests {
		got, err := z.Read(test.offset, test.size)
		if err != nil {
			t.Fatalf("Read(%d, %d): %v", test.offset, test.size, err)
		}
		if diff := cmp.Diff(test.expected, string(got)); diff != "" {
			t.Fatalf("Read(%d, %d) (-want, +got):\n%s", test.offset, test.size, diff)
		}
	}
}

// TestReader_Read_roundTrip reads every in-bounds range for several chunk
// sizes and compares with the original data.
func TestReader_Read_roundTrip(t *testing.T) {
	t.Parallel()

	data := []byte("The quick brown fox jumps over the lazy dog")

	tests := []struct {
		name string
		opts *testutil.DictZipOptions
	}{
		{
			name: "chunk 1",
			opts: &testutil.DictZipOptions{ChunkSize: 1},
		},
		{
			name: "chunk 3",
			opts: &testutil.DictZipOptions{ChunkSize: 3},
		},
		{
			name: "chunk 7 final blocks",
			opts: &testutil.DictZipOptions{ChunkSize: 7, FinalChunks: true},
		},
		{
			name: "chunk 16 with name",
			opts: &testutil.DictZipOptions{ChunkSize: 16, Name: "fox.dict"},
		},
		{
			name: "exact length with comment and crc",
			opts: &testutil.DictZipOptions{ChunkSize: len(data), Comment: "fox", HeaderCRC: true},
		},
		{
			name: "larger than data",
			opts: &testutil.DictZipOptions{ChunkSize: 1024, Name: "fox.dict", Comment: "fox"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			z, err := dictzip.NewReader(bytes.NewReader(testutil.MakeDictZip(t, data, test.opts)))
			if err != nil {
				t.Fatalf("NewReader: %v", err)
			}

			for off := range len(data) {
				for size := 0; off+size <= len(data); size++ {
					got, err := z.Read(int64(off), size)
					if err != nil {
						t.Fatalf("Read(%d, %d): %v", off, size, err)
					}
					if want := data[off : off+size]; !bytes.Equal(want, got) {
						t.Fatalf("Read(%d, %d): want %q, got %q", off, size, want, got)
					}
				}
			}
		})
	}
}

func TestReader_Read_outOfRange(t *testing.T) {
	t.Parallel()

	b := testutil.MakeDictZip(t, []byte("abcdefghij"), &testutil.DictZipOptions{
		ChunkSize: 4,
	})
	z, err := dictzip.NewReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	tests := []struct {
		name   string
		offset int64
		size   int
	}{
		{
			name:   "past final chunk data",
			offset: 8,
			size:   3,
		},
		{
			name:   "starts past final chunk data",
			offset: 10,
			size:   1,
		},
		{
			name:   "chunk index past table",
			offset: 12,
			size:   1,
		},
		{
			name:   "spans into missing data",
			offset: 2,
			size:   20,
		},
		{
			name:   "empty read past table",
			offset: 12,
			size:   0,
		},
		{
			name:   "empty read past final chunk data",
			offset: 10,
			size:   0,
		},
		{
			name:   "huge size",
			offset: 0,
			size:   1 << 30,
		},
		{
			name:   "negative offset",
			offset: -1,
			size:   1,
		},
		{
			name:   "negative size",
			offset: 0,
			size:   -1,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			_, err := z.Read(test.offset, test.size)
			if !errors.Is(err, dictzip.ErrOutOfRange) {
				t.Fatalf("Read: got %v, want %v", err, dictzip.ErrOutOfRange)
			}
		})
	}
}

func TestReader_ReadAt(t *testing.T) {
	t.Parallel()

	b := testutil.MakeDictZip(t, []byte("abcdefgh"), &testutil.DictZipOptions{
		ChunkSize: 3,
	})
	z, err := dictzip.NewReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	p := make([]byte, 4)
	n, err := z.ReadAt(p, 2)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if diff := cmp.Diff("cdef", string(p[:n])); diff != "" {
		t.Fatalf("ReadAt (-want, +got):\n%s", diff)
	}

	p = make([]byte, 4)
	n, err = z.ReadAt(p, 6)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("ReadAt: got %v, want %v", err, io.EOF)
	}
	if diff := cmp.Diff("gh", string(p[:n])); diff != "" {
		t.Fatalf("ReadAt partial (-want, +got):\n%s", diff)
	}

	n, err = z.ReadAt(p, 8)
	if n != 0 || !errors.Is(err, io.EOF) {
		t.Fatalf("ReadAt at end: got (%d, %v), want (0, %v)", n, err, io.EOF)
	}

	_, err = z.ReadAt(p, 9)
	if !errors.Is(err, dictzip.ErrOutOfRange) {
		t.Fatalf("ReadAt past end: got %v, want %v", err, dictzip.ErrOutOfRange)
	}
}

func TestReader_Size(t *testing.T) {
	t.Parallel()

	for _, data := range []string{"", "ab", "abc", "abcdefgh"} {
		b := testutil.MakeDictZip(t, []byte(data), &testutil.DictZipOptions{
			ChunkSize: 3,
		})
		z, err := dictzip.NewReader(bytes.NewReader(b))
		if err != nil {
			t.Fatalf("NewReader: %v", err)
		}
		if want, got := int64(len(data)), z.Size(); want != got {
			t.Fatalf("Size(%q): want %d, got %d", data, want, got)
		}

		// The data can be read to the end with standard readers.
		got, err := io.ReadAll(io.NewSectionReader(z, 0, 1<<20))
		if err != nil {
			t.Fatalf("ReadAll(%q): %v", data, err)
		}
		if diff := cmp.Diff(data, string(got)); diff != "" {
			t.Fatalf("ReadAll (-want, +got):\n%s", diff)
		}
	}
}

func TestNewReader_badHeader(t *testing.T) {
	t.Parallel()

	valid := testutil.MakeDictZip(t, []byte("abcdefgh"), nil)
	modify := func(f func(b []byte) []byte) []byte {
		return f(append([]byte{}, valid...))
	}

	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "empty",
			data: nil,
		},
		{
			name: "short header",
			data: valid[:6],
		},
		{
			name: "bad magic",
			data: modify(func(b []byte) []byte {
				b[1] = 0x8c
				return b
			}),
		},
		{
			name: "not deflate",
			data: modify(func(b []byte) []byte {
				b[2] = 7
				return b
			}),
		},
		{
			name: "no extra field",
			data: modify(func(b []byte) []byte {
				b[3] &^= 1 << 2
				return b
			}),
		},
		{
			name: "wrong subfield",
			data: modify(func(b []byte) []byte {
				b[12], b[13] = 'X', 'Y'
				return b
			}),
		},
		{
			name: "truncated extra field",
			data: valid[:16],
		},
		{
			name: "truncated chunk table",
			data: modify(func(b []byte) []byte {
				// Claim more chunks than the subfield holds.
				b[20] = 0xff
				return b
			}),
		},
		{
			name: "plain gzip",
			data: []byte{0x1f, 0x8b, 8, 0, 0, 0, 0, 0, 0, 3, 0x03, 0x00},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			_, err := dictzip.NewReader(bytes.NewReader(test.data))
			if !errors.Is(err, dictzip.ErrBadHeader) {
				t.Fatalf("NewReader: got %v, want %v", err, dictzip.ErrBadHeader)
			}
		})
	}
}

func TestReader_corruptChunk(t *testing.T) {
	t.Parallel()

	b := testutil.MakeDictZip(t, []byte("abcdefgh"), &testutil.DictZipOptions{
		ChunkSize: 4,
	})
	// Chunk data starts after the 10 byte header, the 2 byte extra field
	// length and the 14 byte RA subfield for two chunks. The last 8 bytes
	// are the gzip trailer.
	for i := 26; i < len(b)-8; i++ {
		b[i] = 0xff
	}

	z, err := dictzip.NewReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	_, err = z.Read(0, 4)
	if !errors.Is(err, dictzip.ErrCorruptChunk) {
		t.Fatalf("Read: got %v, want %v", err, dictzip.ErrCorruptChunk)
	}
}

// TestOpen reads a file written by the dictzip tool's Go implementation.
func TestOpen(t *testing.T) {
	t.Parallel()

	data := []byte(strings.Repeat("apple\x00Banana\x00cherry\x00", 5000))

	path := filepath.Join(t.TempDir(), "dictionary.dict.dz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w, err := godictzip.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	z, err := dictzip.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer z.Close()

	got, err := z.Read(0, len(data))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(data, got) {
		t.Fatalf("Read: data mismatch")
	}

	// A range straddling the first chunk boundary.
	off := int64(z.ChunkSize() - 3)
	got, err = z.Read(off, 10)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if want := data[off : off+10]; !bytes.Equal(want, got) {
		t.Fatalf("Read(%d, 10): want %q, got %q", off, want, got)
	}
}

func TestOpen_missing(t *testing.T) {
	t.Parallel()

	_, err := dictzip.Open(filepath.Join(t.TempDir(), "missing.dict.dz"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Open: got %v, want %v", err, os.ErrNotExist)
	}
}
