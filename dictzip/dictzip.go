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

package dictzip

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/flate"
)

const (
	gzipID1       = 0x1f
	gzipID2       = 0x8b
	methodDeflate = 8

	flagHCRC    = 1 << 1
	flagExtra   = 1 << 2
	flagName    = 1 << 3
	flagComment = 1 << 4

	headerSize = 10
)

var (
	// ErrBadHeader indicates the file is not a dictzip file or its header is
	// malformed.
	ErrBadHeader = errors.New("bad dictzip header")

	// ErrOutOfRange indicates a read beyond the end of the uncompressed data.
	ErrOutOfRange = errors.New("read out of range")

	// ErrCorruptChunk indicates a chunk that could not be inflated or that
	// inflated to an unexpected length.
	ErrCorruptChunk = errors.New("corrupt chunk")
)

// Reader reads arbitrary byte ranges of the uncompressed data in a dictzip
// file. A Reader is not safe for concurrent use.
type Reader struct {
	r io.ReaderAt
	c io.Closer

	chunkSize int64
	sizes     []uint16
	offsets   []int64

	// size is the uncompressed length or -1 if not yet known.
	size int64
}

// NewReader parses the dictzip header read from r and returns a new Reader.
func NewReader(r io.ReaderAt) (*Reader, error) {
	z := &Reader{
		r:    r,
		size: -1,
	}
	if err := z.readHeader(io.NewSectionReader(r, 0, math.MaxInt64)); err != nil {
		return nil, err
	}
	return z, nil
}

// Open opens the dictzip file at path. The returned Reader owns the file and
// should be closed with Close.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dictzip file: %w", err)
	}

	z, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	z.c = f
	return z, nil
}

// Close closes the underlying file if the Reader was created by Open.
func (z *Reader) Close() error {
	if z.c == nil {
		return nil
	}
	if err := z.c.Close(); err != nil {
		return fmt.Errorf("closing dictzip file: %w", err)
	}
	return nil
}

// ChunkSize returns the uncompressed length of every chunk but the last.
func (z *Reader) ChunkSize() int {
	return int(z.chunkSize)
}

// ChunkCount returns the number of chunks.
func (z *Reader) ChunkCount() int {
	return len(z.sizes)
}

func (z *Reader) readHeader(sr *io.SectionReader) error {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(sr, hdr[:]); err != nil {
		return fmt.Errorf("%w: reading header: %w", ErrBadHeader, err)
	}
	if hdr[0] != gzipID1 || hdr[1] != gzipID2 {
		return fmt.Errorf("%w: bad magic %#x %#x", ErrBadHeader, hdr[0], hdr[1])
	}
	if hdr[2] != methodDeflate {
		return fmt.Errorf("%w: unsupported compression method %d", ErrBadHeader, hdr[2])
	}
	flags := hdr[3]
	if flags&flagExtra == 0 {
		return fmt.Errorf("%w: missing extra field", ErrBadHeader)
	}

	var xlen [2]byte
	if _, err := io.ReadFull(sr, xlen[:]); err != nil {
		return fmt.Errorf("%w: reading extra field length: %w", ErrBadHeader, err)
	}
	extra := make([]byte, binary.LittleEndian.Uint16(xlen[:]))
	if _, err := io.ReadFull(sr, extra); err != nil {
		return fmt.Errorf("%w: reading extra field: %w", ErrBadHeader, err)
	}
	if len(extra) < 4 {
		return fmt.Errorf("%w: extra field too short", ErrBadHeader)
	}
	if extra[0] != 'R' || extra[1] != 'A' {
		return fmt.Errorf("%w: unexpected subfield %q", ErrBadHeader, extra[:2])
	}
	subLen := int(binary.LittleEndian.Uint16(extra[2:4]))
	if 4+subLen > len(extra) {
		return fmt.Errorf("%w: subfield length %d exceeds extra field", ErrBadHeader, subLen)
	}
	payload := extra[4 : 4+subLen]
	if len(payload) < 6 {
		return fmt.Errorf("%w: subfield too short", ErrBadHeader)
	}

	// payload[0:2] is the format version which is not used.
	z.chunkSize = int64(binary.LittleEndian.Uint16(payload[2:4]))
	if z.chunkSize == 0 {
		return fmt.Errorf("%w: zero chunk length", ErrBadHeader)
	}
	count := int(binary.LittleEndian.Uint16(payload[4:6]))
	if len(payload) < 6+2*count {
		return fmt.Errorf("%w: chunk table truncated: %d chunks in %d bytes", ErrBadHeader, count, len(payload)-6)
	}
	z.sizes = make([]uint16, count)
	for i := range z.sizes {
		z.sizes[i] = binary.LittleEndian.Uint16(payload[6+2*i:])
	}

	if flags&flagName != 0 {
		if err := skipString(sr); err != nil {
			return fmt.Errorf("%w: reading file name: %w", ErrBadHeader, err)
		}
	}
	if flags&flagComment != 0 {
		if err := skipString(sr); err != nil {
			return fmt.Errorf("%w: reading comment: %w", ErrBadHeader, err)
		}
	}
	if flags&flagHCRC != 0 {
		if _, err := sr.Seek(2, io.SeekCurrent); err != nil {
			return fmt.Errorf("%w: skipping header crc: %w", ErrBadHeader, err)
		}
	}

	pos, err := sr.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadHeader, err)
	}
	z.offsets = make([]int64, count)
	for i := range z.offsets {
		z.offsets[i] = pos
		pos += int64(z.sizes[i])
	}

	return nil
}

// skipString consumes bytes up to and including a null terminator.
func skipString(r io.Reader) error {
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		if b[0] == 0 {
			return nil
		}
	}
}

// Read returns size bytes of uncompressed data starting at offset. Reads may
// span any number of chunks.
func (z *Reader) Read(offset int64, size int) ([]byte, error) {
	b, err := z.read(offset, size)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ReadAt implements [io.ReaderAt]. A read that stops at the end of the data
// returns [io.EOF]. Reads past the end return [ErrOutOfRange].
func (z *Reader) ReadAt(p []byte, off int64) (int, error) {
	b, err := z.read(off, len(p))
	n := copy(p, b)
	if errors.Is(err, ErrOutOfRange) && off >= 0 && off+int64(n) == z.Size() {
		return n, io.EOF
	}
	return n, err
}

// Size returns the uncompressed length of the data. The final chunk is
// inflated on first use. If it cannot be inflated the upper bound implied by
// the chunk table is returned.
func (z *Reader) Size() int64 {
	if z.size >= 0 {
		return z.size
	}
	count := int64(len(z.sizes))
	if count == 0 {
		z.size = 0
		return z.size
	}
	last, err := z.chunk(int(count - 1))
	if err != nil {
		return z.chunkSize * count
	}
	z.size = z.chunkSize*(count-1) + int64(len(last))
	return z.size
}

// read returns the bytes read before any error. The offset is checked
// against the chunk table even when size is zero.
func (z *Reader) read(offset int64, size int) ([]byte, error) {
	if offset < 0 || size < 0 {
		return nil, fmt.Errorf("%w: offset %d, size %d", ErrOutOfRange, offset, size)
	}

	// Sizes come from untrusted index entries. Never allocate more than the
	// chunk table can hold.
	limit := max(z.chunkSize*int64(len(z.sizes))-offset, 0)
	out := make([]byte, 0, min(int64(size), limit))
	for {
		n := offset / z.chunkSize
		if n >= int64(len(z.sizes)) {
			return out, fmt.Errorf("%w: offset %d is in chunk %d of %d", ErrOutOfRange, offset, n, len(z.sizes))
		}

		data, err := z.chunk(int(n))
		if err != nil {
			return out, err
		}

		local := int(offset % z.chunkSize)
		if local >= len(data) {
			return out, fmt.Errorf("%w: offset %d is past the end of the data", ErrOutOfRange, offset)
		}
		take := min(size-len(out), len(data)-local)
		out = append(out, data[local:local+take]...)
		offset += int64(take)

		if len(out) == size {
			return out, nil
		}
	}
}

// chunk inflates chunk i. Each call uses a new inflater since chunks do not
// share deflate state.
func (z *Reader) chunk(i int) ([]byte, error) {
	buf := make([]byte, z.sizes[i])
	n, err := z.r.ReadAt(buf, z.offsets[i])
	if n < len(buf) {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("%w: reading chunk %d: %w", ErrCorruptChunk, i, err)
	}

	fr := flate.NewReader(bytes.NewReader(buf))
	defer fr.Close()

	// Chunks other than the last end at a flush point rather than a final
	// block so the inflater reports an unexpected EOF at the end of input.
	data, err := io.ReadAll(fr)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: inflating chunk %d: %w", ErrCorruptChunk, i, err)
	}

	if len(data) > int(z.chunkSize) || (i < len(z.sizes)-1 && len(data) != int(z.chunkSize)) {
		return nil, fmt.Errorf("%w: chunk %d inflated to %d bytes, chunk length is %d",
			ErrCorruptChunk, i, len(data), z.chunkSize)
	}

	return data, nil
}
