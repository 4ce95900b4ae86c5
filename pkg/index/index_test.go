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
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/daviszhen/vecexec/pkg/chunk"
	"github.com/daviszhen/vecexec/pkg/common"
	"github.com/daviszhen/vecexec/pkg/util"
)

var indexTypes = []IndexType{IndexTypeArt, IndexTypeBPlus}

func int32Chunk(vals []int32, nulls ...int) *chunk.Chunk {
	data := &chunk.Chunk{}
	data.Init([]common.LType{common.IntegerType()}, util.DefaultVectorSize)
	data.Data[0] = chunk.NewFlatVectorFrom(common.IntegerType(), vals, nulls...)
	data.SetCard(len(vals))
	return data
}

func rowIdVector(start uint64, count int) *chunk.Vector {
	vec := chunk.NewFlatVector(common.UbigintType(), util.DefaultVectorSize)
	chunk.GenerateSequence(vec, count, start, 1)
	return vec
}

func Test_index_search(t *testing.T) {
	for _, typ := range indexTypes {
		t.Run(typ.String(), func(t *testing.T) {
			idx, err := NewIndex(typ, "i1", []common.LType{common.IntegerType()}, IndexConstraintTypeNone)
			require.NoError(t, err)
			//row i has value (i % 10) - 5, row 3 is NULL
			vals := make([]int32, 100)
			for i := range vals {
				vals[i] = int32(i%10) - 5
			}
			require.NoError(t, idx.Append(int32Chunk(vals, 3), rowIdVector(0, len(vals))))
			assert.Equal(t, 99, idx.Count())

			rowIds, err := idx.SearchEqual(chunk.IntegerValue(-5))
			require.NoError(t, err)
			assert.Equal(t, []uint64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90}, rowIds)

			rowIds, err = idx.SearchEqual(chunk.IntegerValue(-2))
			require.NoError(t, err)
			assert.Equal(t, []uint64{13, 23, 33, 43, 53, 63, 73, 83, 93}, rowIds)

			rowIds, err = idx.SearchEqual(chunk.IntegerValue(100))
			require.NoError(t, err)
			assert.Empty(t, rowIds)

			// -1 <= v < 1
			rowIds, err = idx.SearchRange(
				[]*chunk.Value{chunk.IntegerValue(-1)},
				[]*chunk.Value{chunk.IntegerValue(1)},
				true, false)
			require.NoError(t, err)
			assert.Len(t, rowIds, 20)
			for _, id := range rowIds {
				assert.Contains(t, []uint64{4, 5}, id%10)
			}
			assert.True(t, sort.SliceIsSorted(rowIds, func(i, j int) bool { return rowIds[i] < rowIds[j] }))

			// v > 3
			rowIds, err = idx.SearchRange([]*chunk.Value{chunk.IntegerValue(3)}, nil, false, false)
			require.NoError(t, err)
			assert.Len(t, rowIds, 10)

			// v <= -4
			rowIds, err = idx.SearchRange(nil, []*chunk.Value{chunk.IntegerValue(-4)}, false, true)
			require.NoError(t, err)
			assert.Len(t, rowIds, 20)

			rowIds, err = idx.SearchRange(nil, nil, false, false)
			require.NoError(t, err)
			assert.Len(t, rowIds, 99)

			_, err = idx.SearchEqual(chunk.NullValue(common.IntegerType()))
			assert.Error(t, err)
			_, err = idx.SearchEqual(chunk.VarcharValue("x"))
			assert.Error(t, err)

			require.NoError(t, idx.Delete(int32Chunk(vals[:10]), rowIdVector(0, 10)))
			assert.Equal(t, 90, idx.Count())
			rowIds, err = idx.SearchEqual(chunk.IntegerValue(-5))
			require.NoError(t, err)
			assert.Len(t, rowIds, 9)
		})
	}
}

func Test_index_unique(t *testing.T) {
	for _, typ := range indexTypes {
		t.Run(typ.String(), func(t *testing.T) {
			idx, err := NewIndex(typ, "u1", []common.LType{common.IntegerType()}, IndexConstraintTypeUnique)
			require.NoError(t, err)
			require.True(t, idx.IsUnique())
			require.NoError(t, idx.Append(int32Chunk([]int32{1, 2, 3}, 1), rowIdVector(0, 3)))
			assert.Equal(t, 2, idx.Count())

			//NULL keys never conflict
			require.NoError(t, idx.Append(int32Chunk([]int32{0, 4}, 0), rowIdVector(3, 2)))
			assert.Equal(t, 3, idx.Count())

			//conflict with an existing key
			err = idx.Append(int32Chunk([]int32{5, 6, 3, 7}), rowIdVector(5, 4))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDuplicateKey))
			assert.Equal(t, 3, idx.Count())
			rowIds, err := idx.SearchEqual(chunk.IntegerValue(5))
			require.NoError(t, err)
			assert.Empty(t, rowIds)

			//conflict inside the batch
			err = idx.Append(int32Chunk([]int32{8, 9, 8}), rowIdVector(9, 3))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDuplicateKey))
			assert.Equal(t, 3, idx.Count())

			rowIds, err = idx.SearchEqual(chunk.IntegerValue(3))
			require.NoError(t, err)
			assert.Equal(t, []uint64{2}, rowIds)
		})
	}
}

func Test_index_composite(t *testing.T) {
	typs := []common.LType{common.VarcharType(), common.BigintType(), common.DecimalType(10, 2)}
	for _, typ := range indexTypes {
		t.Run(typ.String(), func(t *testing.T) {
			idx, err := NewIndex(typ, "c1", typs, IndexConstraintTypeNone)
			require.NoError(t, err)
			data := &chunk.Chunk{}
			data.Init(typs, util.DefaultVectorSize)
			names := []string{"a", "ab", "a\x00", "b", "a", "ab"}
			for i, name := range names {
				data.Data[0].SetValue(i, chunk.VarcharValue(name))
				data.Data[1].SetValue(i, chunk.BigintValue(int64(i)-3))
				data.Data[2].SetValue(i, chunk.DecimalValue(fmt.Sprintf("%d.25", i), 10, 2))
			}
			data.SetCard(len(names))
			require.NoError(t, idx.Append(data, rowIdVector(0, len(names))))

			rowIds, err := idx.SearchEqual(chunk.VarcharValue("a"))
			require.NoError(t, err)
			assert.Equal(t, []uint64{0, 4}, rowIds)

			rowIds, err = idx.SearchEqual(chunk.VarcharValue("ab"), chunk.BigintValue(-2))
			require.NoError(t, err)
			assert.Equal(t, []uint64{1}, rowIds)

			rowIds, err = idx.SearchEqual(
				chunk.VarcharValue("ab"),
				chunk.BigintValue(2),
				chunk.DecimalValue("5.25", 10, 2))
			require.NoError(t, err)
			assert.Equal(t, []uint64{5}, rowIds)

			// "a" <= name < "b"
			rowIds, err = idx.SearchRange(
				[]*chunk.Value{chunk.VarcharValue("a")},
				[]*chunk.Value{chunk.VarcharValue("b")},
				true, false)
			require.NoError(t, err)
			assert.Equal(t, []uint64{0, 1, 2, 4, 5}, rowIds)

			// name > "a"
			rowIds, err = idx.SearchRange([]*chunk.Value{chunk.VarcharValue("a")}, nil, false, false)
			require.NoError(t, err)
			assert.Equal(t, []uint64{1, 2, 3, 5}, rowIds)
		})
	}
}

func Test_index_concurrent_append(t *testing.T) {
	for _, typ := range indexTypes {
		t.Run(typ.String(), func(t *testing.T) {
			idx, err := NewIndex(typ, "p1", []common.LType{common.IntegerType()}, IndexConstraintTypeUnique)
			require.NoError(t, err)
			g := errgroup.Group{}
			for w := 0; w < 8; w++ {
				w := w
				g.Go(func() error {
					vals := make([]int32, 500)
					for i := range vals {
						vals[i] = int32(w*500 + i)
					}
					return idx.Append(int32Chunk(vals), rowIdVector(uint64(w*500), len(vals)))
				})
			}
			require.NoError(t, g.Wait())
			assert.Equal(t, 4000, idx.Count())
			rowIds, err := idx.SearchRange(
				[]*chunk.Value{chunk.IntegerValue(1000)},
				[]*chunk.Value{chunk.IntegerValue(1999)},
				true, true)
			require.NoError(t, err)
			require.Len(t, rowIds, 1000)
			assert.Equal(t, uint64(1000), rowIds[0])
		})
	}
}

func Test_art_random(t *testing.T) {
	art := NewArt()
	rnd := rand.New(rand.NewSource(42))
	keys := make(map[string]uint64)
	for len(keys) < 5000 {
		var key []byte
		v := rnd.Int63n(1 << 20)
		key = util.EncodeInt64(key, v)
		keys[string(key)] = uint64(v)
	}
	for k, v := range keys {
		art.Insert([]byte(k), v)
	}
	assert.Equal(t, len(keys), art.Len())
	for k, v := range keys {
		bm := art.Lookup([]byte(k))
		require.NotNil(t, bm)
		assert.True(t, bm.Contains(v))
	}

	var prev []byte
	visited := 0
	art.Scan(nil, nil, false, false, func(key []byte, _ *roaring64.Bitmap) bool {
		assert.True(t, prev == nil || bytes.Compare(prev, key) < 0)
		prev = append(prev[:0], key...)
		visited++
		return true
	})
	assert.Equal(t, len(keys), visited)

	deleted := 0
	for k, v := range keys {
		if v%2 == 0 {
			require.True(t, art.Delete([]byte(k), v))
			assert.False(t, art.Delete([]byte(k), v))
			deleted++
		}
	}
	assert.Equal(t, len(keys)-deleted, art.Len())
	for k, v := range keys {
		bm := art.Lookup([]byte(k))
		if v%2 == 0 {
			assert.Nil(t, bm)
		} else {
			require.NotNil(t, bm)
			assert.True(t, bm.Contains(v))
		}
	}
	for k, v := range keys {
		if v%2 == 1 {
			art.Delete([]byte(k), v)
		}
	}
	assert.Equal(t, 0, art.Len())
	assert.Nil(t, art._root)
}

func Test_art_scan_bounds(t *testing.T) {
	art := NewArt()
	encode := func(v int64) []byte {
		return util.EncodeInt64(nil, v)
	}
	for v := int64(0); v < 1000; v++ {
		art.Insert(encode(v), uint64(v))
		//a second row with the same key shares the leaf
		art.Insert(encode(v), uint64(v+10000))
	}

	lo, hi := encode(100), encode(200)
	var seen []int64
	art.Scan(lo, hi, false, true, func(key []byte, rowIds *roaring64.Bitmap) bool {
		require.True(t, bytes.Compare(key, lo) > 0)
		require.True(t, bytes.Compare(key, hi) <= 0)
		assert.Equal(t, uint64(2), rowIds.GetCardinality())
		seen = append(seen, int64(rowIds.Minimum()))
		return true
	})
	require.Len(t, seen, 100)
	assert.Equal(t, int64(101), seen[0])
	assert.Equal(t, int64(200), seen[99])

	//the callback stops the scan
	visited := 0
	art.Scan(encode(500), nil, true, false, func(key []byte, _ *roaring64.Bitmap) bool {
		visited++
		return visited < 5
	})
	assert.Equal(t, 5, visited)

	//bounds outside every key
	art.Scan(encode(5000), nil, true, false, func(key []byte, _ *roaring64.Bitmap) bool {
		t.Fatalf("unexpected key %v", key)
		return true
	})
}

func Test_key_order(t *testing.T) {
	typs := []common.LType{common.DecimalType(10, 2)}
	vals := []string{"-10.50", "-1.25", "-0.75", "0", "0.01", "3.5", "12"}
	var prev []byte
	for _, v := range vals {
		key, err := CreateKey(typs, []*chunk.Value{chunk.DecimalValue(v, 10, 2)})
		require.NoError(t, err)
		assert.True(t, prev == nil || bytes.Compare(prev, key) < 0, v)
		prev = key
	}

	_, err := CreateKey(typs, []*chunk.Value{chunk.IntegerValue(1), chunk.IntegerValue(2)})
	assert.Error(t, err)
}
