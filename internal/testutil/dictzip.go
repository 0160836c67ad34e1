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

package testutil

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"math"
	"testing"

	"github.com/klauspost/compress/flate"
)

// DictZipOptions are options for MakeDictZip.
type DictZipOptions struct {
	// ChunkSize is the uncompressed chunk length. Defaults to 4.
	ChunkSize int

	// Name is written as the original file name when not empty.
	Name string

	// Comment is written as the file comment when not empty.
	Comment string

	// HeaderCRC writes a header crc16.
	HeaderCRC bool

	// FinalChunks ends every chunk with a final deflate block instead of a
	// flush.
	FinalChunks bool
}

// MakeDictZip builds a dictzip file holding data split into chunks of the
// given size.
func MakeDictZip(t *testing.T, data []byte, opts *DictZipOptions) []byte {
	t.Helper()
	if opts == nil {
		opts = &DictZipOptions{}
	}
	chunkSize := opts.ChunkSize
	if chunkSize == 0 {
		chunkSize = 4
	}
	if chunkSize > math.MaxUint16 {
		t.Fatalf("chunk size too large: %d", chunkSize)
	}

	var chunks [][]byte
	for start := 0; start < len(data); start += chunkSize {
		end := min(start+chunkSize, len(data))

		var buf bytes.Buffer
		w, err := flate.NewWriter(&buf, flate.BestCompression)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(data[start:end]); err != nil {
			t.Fatal(err)
		}
		if end == len(data) || opts.FinalChunks {
			err = w.Close()
		} else {
			err = w.Flush()
		}
		if err != nil {
			t.Fatal(err)
		}
		if buf.Len() > math.MaxUint16 {
			t.Fatalf("compressed chunk too large: %d", buf.Len())
		}
		chunks = append(chunks, buf.Bytes())
	}

	flags := byte(1 << 2)
	if opts.Name != "" {
		flags |= 1 << 3
	}
	if opts.Comment != "" {
		flags |= 1 << 4
	}
	if opts.HeaderCRC {
		flags |= 1 << 1
	}

	le := binary.LittleEndian
	b := []byte{0x1f, 0x8b, 8, flags, 0, 0, 0, 0, 0, 3}

	subLen := 6 + 2*len(chunks)
	//nolint:gosec // test code, lengths are small.
	b = le.AppendUint16(b, uint16(4+subLen))
	b = append(b, 'R', 'A')
	//nolint:gosec // test code, lengths are small.
	b = le.AppendUint16(b, uint16(subLen))
	b = le.AppendUint16(b, 1)
	//nolint:gosec // checked above.
	b = le.AppendUint16(b, uint16(chunkSize))
	//nolint:gosec // test code, lengths are small.
	b = le.AppendUint16(b, uint16(len(chunks)))
	for _, c := range chunks {
		//nolint:gosec // checked above.
		b = le.AppendUint16(b, uint16(len(c)))
	}

	if opts.Name != "" {
		b = append(b, opts.Name...)
		b = append(b, 0)
	}
	if opts.Comment != "" {
		b = append(b, opts.Comment...)
		b = append(b, 0)
	}
	if opts.HeaderCRC {
		//nolint:gosec // crc16 is the low 16 bits of the crc32.
		b = le.AppendUint16(b, uint16(crc32.ChecksumIEEE(b)))
	}

	for _, c := range chunks {
		b = append(b, c...)
	}

	b = le.AppendUint32(b, crc32.ChecksumIEEE(data))
	//nolint:gosec // test code, lengths are small.
	b = le.AppendUint32(b, uint32(len(data)))

	return b
}
