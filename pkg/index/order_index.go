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
	"bytes"

	"github.com/tidwall/btree"
)

// OrderIndex is a b-tree of keys ordered by (data, row id).
type OrderIndex struct {
	_btree *btree.BTreeG[*IndexKey]
}

func NewOrderIndex() *OrderIndex {
	return &OrderIndex{
		_btree: btree.NewBTreeGOptions[*IndexKey](IndexKeyLess, btree.Options{NoLocks: true}),
	}
}

func (idx *OrderIndex) Len() int {
	return idx._btree.Len()
}

// Contains reports whether some row has key data.
func (idx *OrderIndex) Contains(data []byte) bool {
	found := false
	idx._btree.Ascend(&IndexKey{Data: data}, func(item *IndexKey) bool {
		found = bytes.Equal(item.Data, data)
		return false
	})
	return found
}

func (idx *OrderIndex) Insert(key *IndexKey) {
	idx._btree.Set(key)
}

func (idx *OrderIndex) Delete(key *IndexKey) bool {
	_, has := idx._btree.Delete(key)
	return has
}

// SearchPrefix appends the row ids of keys starting with prefix.
func (idx *OrderIndex) SearchPrefix(prefix []byte, resultIds *[]uint64) {
	idx._btree.Ascend(&IndexKey{Data: prefix}, func(item *IndexKey) bool {
		if !bytes.HasPrefix(item.Data, prefix) {
			return false
		}
		*resultIds = append(*resultIds, item.RowId)
		return true
	})
}

// SearchRange appends the row ids of keys between lo and hi. Bounds
// compare with the key prefix of the same length. A nil bound is open.
func (idx *OrderIndex) SearchRange(
	lo, hi []byte,
	loInclusive, hiInclusive bool,
	resultIds *[]uint64,
) {
	iter := func(item *IndexKey) bool {
		if lo != nil && !loInclusive && comparePrefix(item.Data, lo) == 0 {
			return true
		}
		if hi != nil {
			c := comparePrefix(item.Data, hi)
			if c > 0 || c == 0 && !hiInclusive {
				return false
			}
		}
		*resultIds = append(*resultIds, item.RowId)
		return true
	}
	if lo == nil {
		idx._btree.Scan(iter)
		return
	}
	idx._btree.Ascend(&IndexKey{Data: lo}, iter)
}

// Scan visits all keys in order.
func (idx *OrderIndex) Scan(fn func(key *IndexKey) bool) {
	idx._btree.Scan(fn)
}

// comparePrefix compares the first len(bound) bytes of data with bound.
func comparePrefix(data, bound []byte) int {
	if len(data) > len(bound) {
		data = data[:len(bound)]
	}
	return bytes.Compare(data, bound)
}
