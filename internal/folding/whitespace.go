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

package folding

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// WhitespaceFolder is a [transform.Transformer] for typed queries. It drops
// leading and trailing whitespace and collapses each internal run of
// whitespace into a single ASCII space.
type WhitespaceFolder struct {
	// seenText is set once a non-whitespace rune has been written.
	seenText bool

	// pendingSpace is set when whitespace follows written text. The space is
	// only written if more text follows.
	pendingSpace bool
}

// Transform implements [transform.Transformer.Transform].
func (w *WhitespaceFolder) Transform(dst, src []byte, atEOF bool) (int, int, error) {
	var nDst, nSrc int
	for nSrc < len(src) {
		if !atEOF && !utf8.FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}
		c, size := utf8.DecodeRune(src[nSrc:])

		if unicode.IsSpace(c) {
			w.pendingSpace = w.pendingSpace || w.seenText
			nSrc += size
			continue
		}

		// NOTE: size is not the encoded length when c is utf8.RuneError.
		n := utf8.RuneLen(c)
		if w.pendingSpace {
			n++
		}
		if nDst+n > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}

		if w.pendingSpace {
			dst[nDst] = ' '
			nDst++
			w.pendingSpace = false
		}
		nDst += utf8.EncodeRune(dst[nDst:], c)
		nSrc += size
		w.seenText = true
	}

	return nDst, nSrc, nil
}

// Reset implements [transform.Transformer.Reset].
func (w *WhitespaceFolder) Reset() {
	*w = WhitespaceFolder{}
}
