// Copyright 2025 Ian Lewis
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

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"
)

const defaultConfigPath = "config.xml"

// config is the sdutil configuration file. It has the form:
//
//	<dictionary>
//	  <file>
//	    <dir>/path/to/dictionaries</dir>
//	  </file>
//	</dictionary>
type config struct {
	// Dirs are additional directories to search for dictionaries.
	Dirs []string
}

// parseConfig reads the XML configuration from r.
func parseConfig(r io.Reader) (*config, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing config: %w", ErrSdutil, err)
	}

	nodes, err := xmlquery.QueryAll(doc, "//dictionary/file/dir")
	if err != nil {
		return nil, fmt.Errorf("%w: querying config: %w", ErrSdutil, err)
	}

	var c config
	for _, n := range nodes {
		if dir := strings.TrimSpace(n.InnerText()); dir != "" {
			c.Dirs = append(c.Dirs, dir)
		}
	}
	return &c, nil
}

// loadConfig reads the configuration file at path. A missing file is only
// an error if required is true.
func loadConfig(path string, required bool) (*config, error) {
	f, err := os.Open(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return &config{}, nil
		}
		return nil, fmt.Errorf("%w: opening config: %w", ErrSdutil, err)
	}
	defer f.Close()

	return parseConfig(f)
}
