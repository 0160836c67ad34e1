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

package index

import (
	"fmt"
	"slices"
	"strings"
)

// Mode selects how a query is matched against index keys.
type Mode int

const (
	// Exact matches keys equal to the query.
	Exact Mode = iota

	// Prefix matches keys that begin with the query. The lowest matching
	// position is returned.
	Prefix
)

// String implements [fmt.Stringer].
func (m Mode) String() string {
	switch m {
	case Exact:
		return "exact"
	case Prefix:
		return "prefix"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Index is a generic sorted array index keyed by the values' String method.
// Keys are compared bytewise.
type Index[V fmt.Stringer] struct {
	index []V
}

// NewIndex creates an index over values that are already ordered by key. The
// order is trusted and not verified. Searching an unordered index returns
// unspecified results.
func NewIndex[V fmt.Stringer](index []V) *Index[V] {
	return &Index[V]{
		index: index,
	}
}

// NewSortedIndex creates an index from a sorted copy of the given values.
// Values with equal keys keep their relative order.
func NewSortedIndex[V fmt.Stringer](index []V) *Index[V] {
	sorted := make([]V, len(index))
	copy(sorted, index)
	slices.SortStableFunc(sorted, func(a, b V) int {
		return strings.Compare(a.String(), b.String())
	})

	return &Index[V]{
		index: sorted,
	}
}

// Len returns the number of values in the index.
func (idx *Index[V]) Len() int {
	return len(idx.index)
}

// At returns the value at position i.
func (idx *Index[V]) At(i int) V {
	return idx.index[i]
}

// Search performs a binary search for query and returns the position of a
// match. For Exact any equal key may be returned when keys repeat. For Prefix
// the lowest position whose key has query as a prefix is returned. An empty
// query never matches.
func (idx *Index[V]) Search(query string, mode Mode) (int, bool) {
	if query == "" {
		return 0, false
	}

	lo, hi := 0, len(idx.index)-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		key := idx.index[mid].String()

		switch mode {
		case Prefix:
			if strings.HasPrefix(key, query) {
				if mid > 0 && strings.HasPrefix(idx.index[mid-1].String(), query) {
					// Refine leftward.
					hi = mid - 1
					continue
				}
				return mid, true
			}
		case Exact:
			if key == query {
				return mid, true
			}
		default:
			return 0, false
		}

		if query > key {
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}

	return 0, false
}
