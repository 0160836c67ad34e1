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

package testutil

import (
	"encoding/binary"
	"math"
	"os"
	"testing"

	"github.com/ianlewis/go-dictzip"

	"github.com/ianlewis/sdreader/dict"
)

// WriteDictZip writes data to path using the dictzip format.
func WriteDictZip(t *testing.T, path string, data []byte) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	z, err := dictzip.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := z.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := z.Close(); err != nil {
		t.Fatal(err)
	}
}

// MakeDict creates a test .dict file.
func MakeDict(t *testing.T, words []*dict.Word, sameTypeSequence []dict.DataType) []byte {
	t.Helper()

	b := []byte{}
	for _, w := range words {
		for i, d := range w.Data {
			isString := 'a' <= d.Type && d.Type <= 'z'
			if len(sameTypeSequence) == 0 {
				b = append(b, byte(d.Type))
				if isString {
					b = append(b, d.Data...)
					b = append(b, 0) // Append a zero byte terminator.
				} else {
					b = appendSized(t, b, d.Data)
				}
				continue
			}

			// The last item in a sametypesequence word has no terminator
			// or size.
			switch {
			case i == len(w.Data)-1:
				b = append(b, d.Data...)
			case isString:
				b = append(b, d.Data...)
				b = append(b, 0)
			default:
				b = appendSized(t, b, d.Data)
			}
		}
	}

	return b
}

func appendSized(t *testing.T, b, data []byte) []byte {
	t.Helper()

	dataLen := len(data)
	if dataLen > math.MaxUint32 {
		t.Fatalf("word data too long: %d", dataLen)
	}
	//nolint:gosec // checked above.
	b = binary.BigEndian.AppendUint32(b, uint32(dataLen))
	return append(b, data...)
}
