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

package index

import (
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/daviszhen/vecexec/pkg/chunk"
	"github.com/daviszhen/vecexec/pkg/common"
	"github.com/daviszhen/vecexec/pkg/util"
)

type IndexType uint8

const (
	IndexTypeInvalid IndexType = 0
	IndexTypeArt     IndexType = 1
	IndexTypeBPlus   IndexType = 2
)

func (typ IndexType) String() string {
	switch typ {
	case IndexTypeArt:
		return "art"
	case IndexTypeBPlus:
		return "btree"
	default:
		return "invalid"
	}
}

// ParseIndexType reads the USING clause of CREATE INDEX. Empty is art.
func ParseIndexType(s string) (IndexType, error) {
	switch strings.ToLower(s) {
	case "", "art":
		return IndexTypeArt, nil
	case "btree", "bplus":
		return IndexTypeBPlus, nil
	default:
		return IndexTypeInvalid, errors.Newf("unknown index type %q", s)
	}
}

type IndexConstraintType uint8

const (
	IndexConstraintTypeNone    IndexConstraintType = 0
	IndexConstraintTypeUnique  IndexConstraintType = 1
	IndexConstraintTypePrimary IndexConstraintType = 2
)

var ErrDuplicateKey = errors.New("duplicate key")

type IndexLock struct {
	_indexLock *util.ReentryLock
}

// Index is one of the index variants selected by its type. Appends and
// lookups are serialized by a reentrant lock.
type Index struct {
	_typ            IndexType
	_name           string
	_logicalTypes   []common.LType
	_constraintType IndexConstraintType
	_lock           *util.ReentryLock

	_order *OrderIndex
	_art   *Art
}

func NewIndex(
	typ IndexType,
	name string,
	lTyps []common.LType,
	constraintTyp IndexConstraintType,
) (*Index, error) {
	if len(lTyps) == 0 {
		return nil, errors.Newf("index %s has no key columns", name)
	}
	ret := &Index{
		_typ:            typ,
		_name:           name,
		_logicalTypes:   lTyps,
		_constraintType: constraintTyp,
		_lock:           util.NewReentryLock(),
	}
	switch typ {
	case IndexTypeBPlus:
		ret._order = NewOrderIndex()
	case IndexTypeArt:
		ret._art = NewArt()
	default:
		return nil, errors.Newf("index %s of type %v", name, typ)
	}
	return ret, nil
}

func (idx *Index) Name() string {
	return idx._name
}

func (idx *Index) Type() IndexType {
	return idx._typ
}

func (idx *Index) LogicalTypes() []common.LType {
	return idx._logicalTypes
}

func (idx *Index) IsUnique() bool {
	return idx._constraintType == IndexConstraintTypeUnique ||
		idx._constraintType == IndexConstraintTypePrimary
}

func (idx *Index) IsPrimary() bool {
	return idx._constraintType == IndexConstraintTypePrimary
}

func (idx *Index) InitLock(state *IndexLock) {
	state._indexLock = idx._lock
	state._indexLock.Lock()
}

// Count is the number of indexed rows.
func (idx *Index) Count() int {
	state := &IndexLock{}
	idx.InitLock(state)
	defer state._indexLock.Unlock()
	switch idx._typ {
	case IndexTypeBPlus:
		return idx._order.Len()
	default:
		return idx._art.Len()
	}
}

// Append indexes the rows of entries with row ids rowIds. Rows with a
// NULL key are skipped. On a duplicate key of a unique index nothing of
// entries stays in the index.
func (idx *Index) Append(entries *chunk.Chunk, rowIds *chunk.Vector) error {
	state := &IndexLock{}
	idx.InitLock(state)
	defer state._indexLock.Unlock()
	return idx.Append2(state, entries, rowIds)
}

func (idx *Index) Append2(
	lock *IndexLock,
	input *chunk.Chunk,
	rowIds *chunk.Vector) error {
	util.AssertFunc(lock._indexLock == idx._lock)
	util.AssertFunc(rowIds.Typ().GetInternalType() == common.UINT64)
	if err := idx.checkTypes(input); err != nil {
		return err
	}
	//one key for one row
	keys := make([]*IndexKey, input.Card())
	GenerateKeys(input, keys)
	if err := idx.setRowIds(keys, rowIds, input.Card()); err != nil {
		return err
	}

	failedIndex := -1
	for i, key := range keys {
		if key.Empty() {
			continue
		}
		if idx.IsUnique() && idx.contains(key.Data) {
			failedIndex = i
			break
		}
		idx.insert(key)
	}

	//delete already inserted rows
	if failedIndex != -1 {
		err := idx.Delete2(lock, keys[:failedIndex])
		if err != nil {
			return errors.CombineErrors(err, ErrDuplicateKey)
		}
		util.Debug("index append rolled back",
			zap.String("index", idx._name),
			zap.Int("rows", failedIndex))
		return errors.Wrapf(ErrDuplicateKey, "index %s row %d",
			idx._name, keys[failedIndex].RowId)
	}
	util.Debug("index append",
		zap.String("index", idx._name),
		zap.Int("rows", len(keys)),
		zap.Int("size", idx.Count()))
	return nil
}

func (idx *Index) checkTypes(input *chunk.Chunk) error {
	if input.ColumnCount() != len(idx._logicalTypes) {
		return errors.Newf("index %s has %d columns, input has %d",
			idx._name, len(idx._logicalTypes), input.ColumnCount())
	}
	for i, typ := range idx._logicalTypes {
		if input.Data[i].Typ().GetInternalType() != typ.GetInternalType() {
			return errors.Newf("index %s column %d is %s, input is %s",
				idx._name, i, typ, input.Data[i].Typ())
		}
	}
	return nil
}

func (idx *Index) setRowIds(keys []*IndexKey, rowIds *chunk.Vector, count int) error {
	var rdata chunk.UnifiedFormat
	rowIds.ToUnifiedFormat(count, &rdata)
	rowIdsSlice := chunk.GetSliceInPhyFormatUnifiedFormat[uint64](&rdata)
	for i := 0; i < count; i++ {
		ridx := rdata.Sel.GetIndex(i)
		if !rdata.Mask.RowIsValid(uint64(ridx)) {
			return errors.Newf("NULL row id at %d", i)
		}
		keys[i].RowId = rowIdsSlice[ridx]
	}
	return nil
}

func (idx *Index) contains(data []byte) bool {
	switch idx._typ {
	case IndexTypeBPlus:
		return idx._order.Contains(data)
	default:
		rowIds := idx._art.Lookup(data)
		return rowIds != nil && !rowIds.IsEmpty()
	}
}

func (idx *Index) insert(key *IndexKey) {
	switch idx._typ {
	case IndexTypeBPlus:
		idx._order.Insert(key)
	default:
		idx._art.Insert(key.Data, key.RowId)
	}
}

// Delete removes the rows of entries with row ids rowIds.
func (idx *Index) Delete(entries *chunk.Chunk, rowIds *chunk.Vector) error {
	state := &IndexLock{}
	idx.InitLock(state)
	defer state._indexLock.Unlock()
	if err := idx.checkTypes(entries); err != nil {
		return err
	}
	keys := make([]*IndexKey, entries.Card())
	GenerateKeys(entries, keys)
	if err := idx.setRowIds(keys, rowIds, entries.Card()); err != nil {
		return err
	}
	return idx.Delete2(state, keys)
}

func (idx *Index) Delete2(lock *IndexLock, keys []*IndexKey) error {
	util.AssertFunc(lock._indexLock.HeldByMe())
	for _, key := range keys {
		if key.Empty() {
			continue
		}
		switch idx._typ {
		case IndexTypeBPlus:
			idx._order.Delete(key)
		default:
			idx._art.Delete(key.Data, key.RowId)
		}
	}
	return nil
}

// SearchEqual returns the sorted row ids whose leading key columns equal
// values.
func (idx *Index) SearchEqual(values ...*chunk.Value) ([]uint64, error) {
	key, err := CreateKey(idx._logicalTypes, values)
	if err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, errors.Newf("search index %s without key", idx._name)
	}
	state := &IndexLock{}
	idx.InitLock(state)
	defer state._indexLock.Unlock()
	var rowIds []uint64
	switch idx._typ {
	case IndexTypeBPlus:
		idx._order.SearchPrefix(key, &rowIds)
	default:
		if len(values) == len(idx._logicalTypes) {
			if bm := idx._art.Lookup(key); bm != nil {
				rowIds = bm.ToArray()
			}
		} else {
			idx.artRange(key, key, true, true, &rowIds)
		}
	}
	return sortRowIds(rowIds), nil
}

// SearchRange returns the sorted row ids whose leading key columns lie
// between lo and hi. An empty bound is open.
func (idx *Index) SearchRange(
	lo, hi []*chunk.Value,
	loInclusive, hiInclusive bool,
) ([]uint64, error) {
	loKey, err := CreateKey(idx._logicalTypes, lo)
	if err != nil {
		return nil, err
	}
	hiKey, err := CreateKey(idx._logicalTypes, hi)
	if err != nil {
		return nil, err
	}
	state := &IndexLock{}
	idx.InitLock(state)
	defer state._indexLock.Unlock()
	var rowIds []uint64
	switch idx._typ {
	case IndexTypeBPlus:
		idx._order.SearchRange(loKey, hiKey, loInclusive, hiInclusive, &rowIds)
	default:
		idx.artRange(loKey, hiKey, loInclusive, hiInclusive, &rowIds)
	}
	return sortRowIds(rowIds), nil
}

func (idx *Index) artRange(lo, hi []byte, loInclusive, hiInclusive bool, rowIds *[]uint64) {
	all := roaring64.New()
	idx._art.Scan(lo, hi, loInclusive, hiInclusive,
		func(key []byte, ids *roaring64.Bitmap) bool {
			all.Or(ids)
			return true
		})
	*rowIds = append(*rowIds, all.ToArray()...)
}

func sortRowIds(rowIds []uint64) []uint64 {
	slices.Sort(rowIds)
	return slices.Compact(rowIds)
}
