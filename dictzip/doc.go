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

// Package dictzip implements random access reads of dictzip (.dz) files.
//
// A dictzip file is a gzip file whose header carries an extra field with the
// subfield id "RA". The subfield holds the uncompressed chunk length and the
// compressed size of every chunk. The deflate stream is flushed at each chunk
// boundary so every chunk can be inflated on its own, which allows reading
// any byte range of the uncompressed data by inflating only the chunks that
// overlap it.
//
// The layout of the RA subfield payload is, in little-endian uint16 values:
//
//	version | chunk length | chunk count | chunk count * compressed size
package dictzip
