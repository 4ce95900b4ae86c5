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

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviszhen/vecexec/pkg/common"
	"github.com/daviszhen/vecexec/pkg/index"
	"github.com/daviszhen/vecexec/pkg/storage"
	"github.com/daviszhen/vecexec/pkg/util"
)

func Test_catalog_collations(t *testing.T) {
	cat := NewCatalog(util.DefaultConfig().Catalog)
	assert.Equal(t,
		[]string{"binary", "da", "de", "en", "fr", "noaccent", "nocase", "sv"},
		cat.Collations())

	bin, err := cat.GetCollation("BINARY")
	require.NoError(t, err)
	assert.Equal(t, "", bin.Function)
	assert.False(t, bin.RequiredFor(true))
	assert.False(t, bin.RequiredFor(false))

	nocase, err := cat.GetCollation("nocase")
	require.NoError(t, err)
	assert.Equal(t, "collate_nocase", nocase.Function)
	assert.True(t, nocase.Combinable)
	assert.True(t, nocase.RequiredFor(true))

	en, err := cat.GetCollation("en")
	require.NoError(t, err)
	assert.True(t, en.NotRequiredForEquality)
	assert.False(t, en.RequiredFor(true))
	assert.True(t, en.RequiredFor(false))

	da, err := cat.GetCollation("da")
	require.NoError(t, err)
	assert.False(t, da.NotRequiredForEquality)
	assert.True(t, da.RequiredFor(true))

	_, err = cat.GetCollation("xx")
	assert.Error(t, err)
	assert.Error(t, cat.AddCollation(NewCollationInfo("en", "collate_en", false, true, nil)))
	require.NoError(t, cat.AddCollation(NewCollationInfo("nl", "collate_nl", false, true, []string{"NL"})))
	nl, err := cat.GetCollation("nl")
	require.NoError(t, err)
	assert.False(t, nl.NotRequiredForEquality)
}

func Test_catalog_tables_indexes(t *testing.T) {
	cat := NewCatalog(util.CatalogOptions{})
	_, err := cat.CreateTable("T1", []*storage.ColumnDefinition{
		{Name: "a", Type: common.IntegerType()},
	})
	require.NoError(t, err)
	_, err = cat.CreateTable("t1", []*storage.ColumnDefinition{
		{Name: "a", Type: common.IntegerType()},
	})
	assert.Error(t, err)
	_, err = cat.CreateTable("t0", []*storage.ColumnDefinition{
		{Name: "b", Type: common.VarcharType()},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"t0", "t1"}, cat.Tables())

	ent, err := cat.GetTable("t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", ent.Name())
	assert.Len(t, ent.GetColumns(), 1)

	idx, err := index.NewIndex(index.IndexTypeArt, "i1",
		[]common.LType{common.IntegerType()}, index.IndexConstraintTypeNone)
	require.NoError(t, err)
	require.NoError(t, cat.CreateIndex(&IndexEntry{Name: "i1", Table: "t1", Index: idx}))
	assert.Error(t, cat.CreateIndex(&IndexEntry{Name: "I1", Table: "t1", Index: idx}))
	assert.Error(t, cat.CreateIndex(&IndexEntry{Name: "i2", Table: "nope", Index: idx}))
	assert.Len(t, ent.Indexes(), 1)

	got, err := cat.GetIndex("I1")
	require.NoError(t, err)
	assert.Same(t, idx, got.Index)

	require.NoError(t, cat.DropIndex("i1"))
	assert.Empty(t, ent.Indexes())
	_, err = cat.GetIndex("i1")
	assert.Error(t, err)
	assert.Error(t, cat.DropIndex("i1"))
}
