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

// Package folding provides the text folding transformers used to compare
// index words and user queries.
package folding

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
)

// Case returns a transformer that performs Unicode case folding. Index words
// are compared after case folding.
func Case() transform.Transformer {
	return cases.Fold()
}

// Query returns a transformer suitable for text typed by a user. It folds
// whitespace spans before case folding.
func Query() transform.Transformer {
	return transform.Chain(&WhitespaceFolder{}, cases.Fold())
}

// String applies a new transformer returned by folder to s.
func String(folder func() transform.Transformer, s string) (string, error) {
	folded, _, err := transform.String(folder(), s)
	if err != nil {
		return "", fmt.Errorf("folding %q: %w", s, err)
	}
	return folded, nil
}
