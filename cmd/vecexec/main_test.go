// Copyright 2023-2024 daviszhen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviszhen/vecexec/pkg/util"
)

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func Test_run_build(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "schema.sql",
		"CREATE TABLE people (id integer, name varchar collate nocase);")
	var sb strings.Builder
	sb.WriteString("id|name\n")
	for i := 0; i < 3000; i++ {
		if i%100 == 0 {
			fmt.Fprintf(&sb, "%d|\\N\n", i)
		} else {
			fmt.Fprintf(&sb, "%d|Name%d\n", i, i%50)
		}
	}
	data := writeFile(t, dir, "people.tbl", sb.String())

	cfg := util.DefaultConfig()
	cfg.Build.Threads = 2
	args := &buildArgs{
		schemaPath: schema,
		dataPath:   data,
		table:      "people",
		header:     true,
		delimiter:  "|",
		nullString: "\\N",
		index:      "CREATE INDEX people_name ON people (name)",
	}
	require.NoError(t, runBuild(context.Background(), cfg, args))

	args.index = "CREATE UNIQUE INDEX people_name ON people (name)"
	assert.ErrorContains(t, runBuild(context.Background(), cfg, args), "duplicate key")

	args.dataFormat = "json"
	assert.ErrorContains(t, runBuild(context.Background(), cfg, args), "json")

	args.index = ""
	assert.Error(t, runBuild(context.Background(), cfg, args))
}
