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

package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vecexec.toml")
	content := `
[build]
threads = 4
nullPolicy = "reject"

[catalog]
equalityRequiresCollation = ["da", "sv"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Build.Threads)
	assert.Equal(t, NullPolicyReject, cfg.Build.NullPolicy)
	assert.Equal(t, []string{"da", "sv"}, cfg.Catalog.EqualityRequiresCollation)
	// untouched sections keep defaults
	assert.Equal(t, "info", cfg.Log.Level)

	_, err = LoadConfig(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	bad := DefaultConfig()
	bad.Build.NullPolicy = "keep"
	assert.Error(t, bad.Validate())
}

func TestAssertFunc(t *testing.T) {
	assert.NotPanics(t, func() { AssertFunc(true) })
	err := RecoverPanic(func() error {
		AssertFuncf(false, "count %d != %d", 1, 2)
		return nil
	})
	require.Error(t, err)
	assert.True(t, errors.HasAssertionFailure(err))
	assert.Contains(t, err.Error(), "count 1 != 2")
}
