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

package storage

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/daviszhen/vecexec/pkg/chunk"
	"github.com/daviszhen/vecexec/pkg/common"
	"github.com/daviszhen/vecexec/pkg/util"
)

type ColumnDefinition struct {
	Name string
	Type common.LType
}

// RowIdColumn in a scan projection produces the row ids as UBIGINT.
const RowIdColumn = -1

// DataTable keeps rows in chunks of util.DefaultVectorSize.
// Every chunk but the last is full, so row id r lives in chunk
// r / DefaultVectorSize.
type DataTable struct {
	_name    string
	_columns []*ColumnDefinition
	_colIdx  map[string]int
	_lock    sync.RWMutex
	_chunks  []*chunk.Chunk
	_count   uint64
}

func NewDataTable(name string, columns []*ColumnDefinition) (*DataTable, error) {
	if len(columns) == 0 {
		return nil, errors.Newf("table %s has no columns", name)
	}
	table := &DataTable{
		_name:    name,
		_columns: columns,
		_colIdx:  make(map[string]int),
	}
	for i, col := range columns {
		key := strings.ToLower(col.Name)
		if _, has := table._colIdx[key]; has {
			return nil, errors.Newf("duplicate column %s in table %s", col.Name, name)
		}
		table._colIdx[key] = i
	}
	return table, nil
}

func (table *DataTable) Name() string {
	return table._name
}

func (table *DataTable) Columns() []*ColumnDefinition {
	return table._columns
}

func (table *DataTable) GetTypes() []common.LType {
	ret := make([]common.LType, len(table._columns))
	for i, col := range table._columns {
		ret[i] = col.Type
	}
	return ret
}

func (table *DataTable) ColumnIndex(name string) (int, error) {
	idx, has := table._colIdx[strings.ToLower(name)]
	if !has {
		return -1, errors.Newf("no column %s in table %s", name, table._name)
	}
	return idx, nil
}

func (table *DataTable) Count() uint64 {
	table._lock.RLock()
	defer table._lock.RUnlock()
	return table._count
}

// Append copies the rows of data to the end of the table.
func (table *DataTable) Append(data *chunk.Chunk) error {
	if data.ColumnCount() != len(table._columns) {
		return errors.Newf("append %d columns to table %s with %d columns",
			data.ColumnCount(), table._name, len(table._columns))
	}
	for i, col := range table._columns {
		if data.Data[i].Typ().GetInternalType() != col.Type.GetInternalType() {
			return errors.Newf("append %s to column %s %s",
				data.Data[i].Typ(), col.Name, col.Type)
		}
	}
	table._lock.Lock()
	defer table._lock.Unlock()
	offset := 0
	for offset < data.Card() {
		last := table.lastChunk()
		n := min(last.Cap()-last.Card(), data.Card()-offset)
		for i := range table._columns {
			chunk.Copy(data.Data[i], last.Data[i], nil, offset+n, offset, last.Card())
		}
		last.SetCard(last.Card() + n)
		offset += n
	}
	table._count += uint64(data.Card())
	return nil
}

// lastChunk returns a chunk with free space.
func (table *DataTable) lastChunk() *chunk.Chunk {
	if len(table._chunks) > 0 {
		last := util.Back(table._chunks)
		if last.Card() < last.Cap() {
			return last
		}
	}
	ret := &chunk.Chunk{}
	ret.Init(table.GetTypes(), util.DefaultVectorSize)
	table._chunks = append(table._chunks, ret)
	return ret
}

// ScanPartition is a range [ChunkStart, ChunkEnd) of chunks.
type ScanPartition struct {
	Index      int
	ChunkStart int
	ChunkEnd   int
}

// Partitions splits the table into at most count ranges of similar size.
func (table *DataTable) Partitions(count int) []*ScanPartition {
	table._lock.RLock()
	n := len(table._chunks)
	table._lock.RUnlock()
	count = max(1, min(count, n))
	ret := make([]*ScanPartition, 0, count)
	start := 0
	for i := 0; i < count; i++ {
		size := n / count
		if i < n%count {
			size++
		}
		ret = append(ret, &ScanPartition{
			Index:      i,
			ChunkStart: start,
			ChunkEnd:   start + size,
		})
		start += size
	}
	return ret
}

type TableScanState struct {
	_columnIds []int
	_next      int
	_end       int
}

// InitScan prepares a scan of columnIds over part. A nil part is the
// whole table.
func (table *DataTable) InitScan(state *TableScanState, columnIds []int, part *ScanPartition) {
	state._columnIds = columnIds
	if part == nil {
		table._lock.RLock()
		state._next, state._end = 0, len(table._chunks)
		table._lock.RUnlock()
		return
	}
	state._next, state._end = part.ChunkStart, part.ChunkEnd
}

// ScanTypes are the types of a scan of columnIds.
func (table *DataTable) ScanTypes(columnIds []int) []common.LType {
	ret := make([]common.LType, len(columnIds))
	for i, id := range columnIds {
		if id == RowIdColumn {
			ret[i] = common.UbigintType()
		} else {
			ret[i] = table._columns[id].Type
		}
	}
	return ret
}

// Scan references the next chunk into output. output has no rows when
// the scan is done.
func (table *DataTable) Scan(state *TableScanState, output *chunk.Chunk) {
	table._lock.RLock()
	defer table._lock.RUnlock()
	if state._next >= state._end || state._next >= len(table._chunks) {
		output.SetCard(0)
		return
	}
	src := table._chunks[state._next]
	rowStart := uint64(state._next) * util.DefaultVectorSize
	for i, colId := range state._columnIds {
		if colId == RowIdColumn {
			chunk.GenerateSequence(output.Data[i], src.Card(), rowStart, 1)
		} else {
			output.Data[i].Reference(src.Data[colId])
		}
	}
	output.SetCard(src.Card())
	state._next++
}

// Fetch returns the value of column colIdx at row rowId.
func (table *DataTable) Fetch(rowId uint64, colIdx int) (*chunk.Value, error) {
	table._lock.RLock()
	defer table._lock.RUnlock()
	if rowId >= table._count {
		return nil, errors.Newf("row %d out of %d rows", rowId, table._count)
	}
	src := table._chunks[rowId/util.DefaultVectorSize]
	return src.Data[colIdx].GetValue(int(rowId % util.DefaultVectorSize)), nil
}
