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

package chunk

import (
	"go.uber.org/zap"

	"github.com/daviszhen/vecexec/pkg/common"
	"github.com/daviszhen/vecexec/pkg/util"
)

// Chunk is a set of vectors sharing one cardinality.
type Chunk struct {
	Data  []*Vector
	Count int
	_Cap  int
}

func (c *Chunk) Init(types []common.LType, cap int) {
	c._Cap = cap
	c.Count = 0
	c.Data = nil
	for _, lType := range types {
		c.Data = append(c.Data, NewFlatVector(lType, c._Cap))
	}
}

func (c *Chunk) Reset() {
	for _, vec := range c.Data {
		vec.Reset()
	}
	c.Count = 0
}

func (c *Chunk) Cap() int {
	return c._Cap
}

func (c *Chunk) SetCard(count int) {
	util.AssertFuncf(count <= c._Cap, "chunk card %d exceeds capacity %d", count, c._Cap)
	c.Count = count
	for _, vec := range c.Data {
		vec.SetCount(count)
	}
}

func (c *Chunk) Card() int {
	return c.Count
}

func (c *Chunk) ColumnCount() int {
	if c == nil {
		return 0
	}
	return len(c.Data)
}

func (c *Chunk) Types() []common.LType {
	ret := make([]common.LType, len(c.Data))
	for i, vec := range c.Data {
		ret[i] = vec.Typ()
	}
	return ret
}

func (c *Chunk) Reference(other *Chunk) {
	util.AssertFunc(other.ColumnCount() <= c.ColumnCount())
	c._Cap = other.Cap()
	for i := 0; i < other.ColumnCount(); i++ {
		c.Data[i].Reference(other.Data[i])
	}
	c.SetCard(other.Card())
}

func (c *Chunk) ReferenceIndice(other *Chunk, indice []int) {
	for i, idx := range indice {
		c.Data[i].Reference(other.Data[idx])
	}
	c.SetCard(other.Card())
}

// Slice references rows sel of other into columns starting at colOffset.
func (c *Chunk) Slice(other *Chunk, sel *SelectVector, count int, colOffset int) {
	util.AssertFunc(other.ColumnCount() <= colOffset+c.ColumnCount())
	for i := 0; i < other.ColumnCount(); i++ {
		c.Data[i+colOffset].Slice(other.Data[i], sel, count)
	}
	c.SetCard(count)
}

func (c *Chunk) SliceItself(sel *SelectVector, cnt int) {
	for i := 0; i < c.ColumnCount(); i++ {
		c.Data[i].SliceOnSelf(sel, cnt)
	}
	c.SetCard(cnt)
}

// Append copies the rows of other to the end of c.
func (c *Chunk) Append(other *Chunk) {
	util.AssertFuncf(c.Card()+other.Card() <= c._Cap,
		"append %d rows to %d overflows %d", other.Card(), c.Card(), c._Cap)
	for i := 0; i < c.ColumnCount(); i++ {
		Copy(other.Data[i], c.Data[i], nil, other.Card(), 0, c.Card())
	}
	c.SetCard(c.Card() + other.Card())
}

func (c *Chunk) ToUnifiedFormat() []*UnifiedFormat {
	ret := make([]*UnifiedFormat, c.ColumnCount())
	for i := 0; i < c.ColumnCount(); i++ {
		ret[i] = &UnifiedFormat{}
		c.Data[i].ToUnifiedFormat(c.Card(), ret[i])
	}
	return ret
}

// Rows returns the text form of every row.
func (c *Chunk) Rows() [][]string {
	ret := make([][]string, c.Card())
	for i := 0; i < c.Card(); i++ {
		row := make([]string, c.ColumnCount())
		for j := 0; j < c.ColumnCount(); j++ {
			row[j] = c.Data[j].GetValue(i).String()
		}
		ret[i] = row
	}
	return ret
}

func (c *Chunk) Print2(rowPrefix string) {
	for _, row := range c.Rows() {
		fields := make([]zap.Field, 0, len(row))
		for _, val := range row {
			fields = append(fields, zap.String("", val))
		}
		util.Info(rowPrefix, fields...)
	}
}

func (c *Chunk) Flatten() {
	for i := 0; i < c.ColumnCount(); i++ {
		c.Data[i].Flatten(c.Card())
	}
}
