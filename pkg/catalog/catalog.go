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
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	treemap "github.com/liyue201/gostl/ds/map"
	"go.uber.org/zap"

	"github.com/daviszhen/vecexec/pkg/index"
	"github.com/daviszhen/vecexec/pkg/storage"
	"github.com/daviszhen/vecexec/pkg/util"
)

const (
	CatalogTypeInvalid uint8 = 0
	CatalogTypeTable   uint8 = 1
	CatalogTypeIndex   uint8 = 2
)

type TableEntry struct {
	_name    string
	_storage *storage.DataTable
	_indexes []*IndexEntry
}

func (ent *TableEntry) Name() string {
	return ent._name
}

func (ent *TableEntry) GetStorage() *storage.DataTable {
	return ent._storage
}

func (ent *TableEntry) GetColumns() []*storage.ColumnDefinition {
	return ent._storage.Columns()
}

func (ent *TableEntry) Indexes() []*IndexEntry {
	return ent._indexes
}

type IndexEntry struct {
	Name  string
	Table string
	Index *index.Index
	// text of the key expressions and the predicate
	Exprs     []string
	Predicate string
}

// Catalog keeps tables, indexes and collations by lower case name.
type Catalog struct {
	_lock       sync.RWMutex
	_tables     *treemap.Map[string, *TableEntry]
	_indexes    *treemap.Map[string, *IndexEntry]
	_collations *treemap.Map[string, *CollationInfo]
}

func nameCmp(a, b string) int {
	return strings.Compare(a, b)
}

// NewCatalog registers the builtin collations and one collation per
// configured language.
func NewCatalog(opts util.CatalogOptions) *Catalog {
	cat := &Catalog{
		_tables:     treemap.New[string, *TableEntry](nameCmp),
		_indexes:    treemap.New[string, *IndexEntry](nameCmp),
		_collations: treemap.New[string, *CollationInfo](nameCmp),
	}
	exceptions := opts.EqualityRequiresCollation
	cat.putCollation(NewCollationInfo(CollationBinary, "", false, true, exceptions))
	cat.putCollation(NewCollationInfo(CollationNocase,
		CollateFunctionName(CollationNocase), true, false, exceptions))
	cat.putCollation(NewCollationInfo(CollationNoaccent,
		CollateFunctionName(CollationNoaccent), true, false, exceptions))
	for _, lang := range opts.Languages {
		cat.putCollation(NewCollationInfo(lang, CollateFunctionName(lang), false, true, exceptions))
	}
	return cat
}

func (cat *Catalog) putCollation(info *CollationInfo) {
	cat._collations.Insert(info.Name, info)
}

func (cat *Catalog) AddCollation(info *CollationInfo) error {
	cat._lock.Lock()
	defer cat._lock.Unlock()
	if cat._collations.Contains(info.Name) {
		return errors.Newf("collation %s already exists", info.Name)
	}
	cat.putCollation(info)
	return nil
}

func (cat *Catalog) GetCollation(name string) (*CollationInfo, error) {
	cat._lock.RLock()
	defer cat._lock.RUnlock()
	info, err := cat._collations.Get(strings.ToLower(name))
	if err != nil {
		return nil, errors.Newf("collation %s does not exist", name)
	}
	return info, nil
}

func (cat *Catalog) Collations() []string {
	cat._lock.RLock()
	defer cat._lock.RUnlock()
	ret := make([]string, 0, cat._collations.Size())
	for iter := cat._collations.Begin(); iter.IsValid(); iter.Next() {
		ret = append(ret, iter.Key())
	}
	return ret
}

func (cat *Catalog) CreateTable(name string, colDefs []*storage.ColumnDefinition) (*TableEntry, error) {
	key := strings.ToLower(name)
	table, err := storage.NewDataTable(key, colDefs)
	if err != nil {
		return nil, err
	}
	cat._lock.Lock()
	defer cat._lock.Unlock()
	if cat._tables.Contains(key) {
		return nil, errors.Newf("table %s already exists", name)
	}
	ent := &TableEntry{
		_name:    key,
		_storage: table,
	}
	cat._tables.Insert(key, ent)
	util.Info("create table",
		zap.String("table", key),
		zap.Int("columns", len(colDefs)))
	return ent, nil
}

func (cat *Catalog) GetTable(name string) (*TableEntry, error) {
	cat._lock.RLock()
	defer cat._lock.RUnlock()
	ent, err := cat._tables.Get(strings.ToLower(name))
	if err != nil {
		return nil, errors.Newf("table %s does not exist", name)
	}
	return ent, nil
}

func (cat *Catalog) Tables() []string {
	cat._lock.RLock()
	defer cat._lock.RUnlock()
	ret := make([]string, 0, cat._tables.Size())
	cat._tables.Traversal(func(key string, _ *TableEntry) bool {
		ret = append(ret, key)
		return true
	})
	return ret
}

// CreateIndex registers ent on its table.
func (cat *Catalog) CreateIndex(ent *IndexEntry) error {
	key := strings.ToLower(ent.Name)
	cat._lock.Lock()
	defer cat._lock.Unlock()
	if cat._indexes.Contains(key) {
		return errors.Newf("index %s already exists", ent.Name)
	}
	table, err := cat._tables.Get(strings.ToLower(ent.Table))
	if err != nil {
		return errors.Newf("table %s does not exist", ent.Table)
	}
	cat._indexes.Insert(key, ent)
	table._indexes = append(table._indexes, ent)
	return nil
}

func (cat *Catalog) GetIndex(name string) (*IndexEntry, error) {
	cat._lock.RLock()
	defer cat._lock.RUnlock()
	ent, err := cat._indexes.Get(strings.ToLower(name))
	if err != nil {
		return nil, errors.Newf("index %s does not exist", name)
	}
	return ent, nil
}

func (cat *Catalog) DropIndex(name string) error {
	key := strings.ToLower(name)
	cat._lock.Lock()
	defer cat._lock.Unlock()
	ent, err := cat._indexes.Get(key)
	if err != nil {
		return errors.Newf("index %s does not exist", name)
	}
	cat._indexes.Erase(key)
	if table, err := cat._tables.Get(strings.ToLower(ent.Table)); err == nil {
		for i, idx := range table._indexes {
			if idx == ent {
				table._indexes = append(table._indexes[:i], table._indexes[i+1:]...)
				break
			}
		}
	}
	return nil
}
