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

package compute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviszhen/vecexec/pkg/chunk"
	"github.com/daviszhen/vecexec/pkg/common"
	"github.com/daviszhen/vecexec/pkg/util"
)

// testChunk has the columns of testColumns.
func testChunk() *chunk.Chunk {
	cols := testColumns()
	decTyp := cols[3].Type
	decs := make([]common.Decimal, 0)
	for _, s := range []string{"1.00", "2.50", "-3.25", "0.00", "10.10", "7.77"} {
		decs = append(decs, common.MustParseDecimal(s, decTyp.Scale))
	}
	data := &chunk.Chunk{}
	data.Init(nil, util.DefaultVectorSize)
	data.Data = []*chunk.Vector{
		chunk.NewFlatVectorFrom[int32](cols[0].Type, []int32{1, 2, 3, 4, 5, 0}, 5),
		chunk.NewFlatVectorFrom[string](cols[1].Type, []string{"abc", "Abc", "xyz", "", "", "héllo"}, 4),
		chunk.NewFlatVectorFrom[string](cols[2].Type, []string{"abc", "ABC", "abd", "x", "y", ""}, 5),
		chunk.NewFlatVectorFrom[common.Decimal](decTyp, decs),
		chunk.NewFlatVectorFrom[int64](cols[4].Type, []int64{10, 20, 30, 40, 50, 60}),
		chunk.NewFlatVectorFrom[string](cols[5].Type, []string{"b", "a", "c", "B", "A", "C"}),
		chunk.NewFlatVectorFrom[string](cols[6].Type, []string{"aa", "å", "z", "b", "ø", "a"}),
	}
	data.SetCard(6)
	return data
}

func valueStrings(vec *chunk.Vector, count int) []string {
	ret := make([]string, count)
	for i := 0; i < count; i++ {
		ret[i] = vec.GetValue(i).String()
	}
	return ret
}

func evalSQL(t *testing.T, binder *ExprBinder, data *chunk.Chunk, sql string) []string {
	e := bindSQL(t, binder, sql)
	exec := NewExprExec(e)
	result := &chunk.Chunk{}
	result.Init([]common.LType{e.DataTyp}, util.DefaultVectorSize)
	require.NoError(t, exec.ExecuteExprs(data, result), sql)
	require.Equal(t, data.Card(), result.Card())
	return valueStrings(result.Data[0], result.Card())
}

func selectSQL(t *testing.T, binder *ExprBinder, data *chunk.Chunk, sql string) []int {
	e := bindSQL(t, binder, sql)
	exec := NewExprExec(e)
	sel := chunk.NewSelectVector(util.DefaultVectorSize)
	n, err := exec.ExecuteSelect(data, sel)
	require.NoError(t, err, sql)
	return selIndices(sel, n)
}

func Test_execute_exprs(t *testing.T) {
	binder := newTestBinder()
	data := testChunk()
	cases := []struct {
		sql    string
		expect []string
	}{
		{"a + 1", []string{"2", "3", "4", "5", "6", "NULL"}},
		{"-a", []string{"-1", "-2", "-3", "-4", "-5", "NULL"}},
		{"e + a", []string{"11", "22", "33", "44", "55", "NULL"}},
		{"e / (a - 3)", []string{"-5", "-20", "NULL", "40", "25", "NULL"}},
		{"e % 7", []string{"3", "6", "2", "5", "1", "4"}},
		{"d * 2", []string{"2.00", "5.00", "-6.50", "0.00", "20.20", "15.54"}},
		{"d + 1", []string{"2.00", "3.50", "-2.25", "1.00", "11.10", "8.77"}},
		{"upper(b)", []string{"ABC", "ABC", "XYZ", "", "NULL", "HÉLLO"}},
		{"lower(c)", []string{"abc", "abc", "abd", "x", "y", "NULL"}},
		{"length(b)", []string{"3", "3", "3", "0", "NULL", "5"}},
		{"b || '!'", []string{"abc!", "Abc!", "xyz!", "!", "NULL", "héllo!"}},
		{"substring(b, 2, 2)", []string{"bc", "bc", "yz", "", "NULL", "él"}},
		{"substring(b, -2)", []string{"bc", "bc", "yz", "", "NULL", "lo"}},
		{"a > 2", []string{"false", "false", "true", "true", "true", "NULL"}},
		{"a between 2 and 4", []string{"false", "true", "true", "true", "false", "NULL"}},
		{"a between 2 and NULL", []string{"NULL", "NULL", "NULL", "NULL", "NULL", "NULL"}},
		{"a is null", []string{"false", "false", "false", "false", "false", "true"}},
		{"b is not null", []string{"true", "true", "true", "true", "false", "true"}},
		{"a > 3 and b is not null", []string{"false", "false", "false", "true", "false", "NULL"}},
		{"a > 3 or e > 15", []string{"false", "true", "true", "true", "true", "true"}},
		{"not (a > 3)", []string{"true", "true", "true", "false", "false", "NULL"}},
		{"cast(a as varchar)", []string{"1", "2", "3", "4", "5", "NULL"}},
		{"cast('12' as integer) + a", []string{"13", "14", "15", "16", "17", "NULL"}},
	}
	for _, c := range cases {
		t.Run(c.sql, func(t *testing.T) {
			assert.Equal(t, c.expect, evalSQL(t, binder, data, c.sql))
		})
	}
}

func Test_execute_exprs_errors(t *testing.T) {
	binder := newTestBinder()
	data := testChunk()
	for _, sql := range []string{
		"cast(b as integer)",
		"e * 1000000000000000000",
	} {
		t.Run(sql, func(t *testing.T) {
			e := bindSQL(t, binder, sql)
			exec := NewExprExec(e)
			result := &chunk.Chunk{}
			result.Init([]common.LType{e.DataTyp}, util.DefaultVectorSize)
			assert.Error(t, exec.ExecuteExprs(data, result))
		})
	}
	//unbound expressions are not executable
	assert.Panics(t, func() {
		NewExprExec(transformSQL(t, "a + 1"))
	})
}

func Test_execute_select(t *testing.T) {
	binder := newTestBinder()
	data := testChunk()
	cases := []struct {
		sql    string
		expect []int
	}{
		{"a > 2", []int{2, 3, 4}},
		{"a <> 3", []int{0, 1, 3, 4}},
		{"a > 1 and a < 5", []int{1, 2, 3}},
		{"a > 3 and b is not null", []int{3}},
		{"a < 2 or a > 4", []int{0, 4}},
		{"a < 2 or e >= 50 or b = 'xyz'", []int{0, 2, 4, 5}},
		{"(a < 3 or a > 4) and e > 10", []int{1, 4}},
		{"a between 2 and 4", []int{1, 2, 3}},
		{"a not between 2 and 4", []int{0, 4}},
		{"a is null", []int{5}},
		{"a in (1, 3, 5)", []int{0, 2, 4}},
		{"not (a > 3)", []int{0, 1, 2}},
		{"a > 100", []int{}},
		{"true", []int{0, 1, 2, 3, 4, 5}},
		{"a > 1 and NULL", []int{}},
		{"d > 2", []int{1, 4, 5}},
		{"d = 2.5", []int{1}},
		{"b = 'abc'", []int{0}},
		{"c = 'abc'", []int{0, 1}},
		{"b collate nocase = 'ABC'", []int{0, 1}},
		{"c < 'abd'", []int{0, 1}},
		{"f < 'b'", []int{1, 4}},
		{"f = 'a'", []int{1}},
	}
	for _, c := range cases {
		t.Run(c.sql, func(t *testing.T) {
			assert.Equal(t, c.expect, selectSQL(t, binder, data, c.sql))
		})
	}
}

func Test_execute_select_reuse(t *testing.T) {
	binder := newTestBinder()
	data := testChunk()
	exec := NewExprExec(bindSQL(t, binder, "a > 1 and (e < 30 or e > 40)"))
	sel := chunk.NewSelectVector(util.DefaultVectorSize)
	for i := 0; i < 3; i++ {
		n, err := exec.ExecuteSelect(data, sel)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 4}, selIndices(sel, n))
	}

	//a dictionary input selects the same rows
	dict := &chunk.Chunk{}
	dict.Init(data.Types(), util.DefaultVectorSize)
	dict.Slice(data, chunk.NewSelectVectorFrom([]uint32{4, 3, 1}), 3, 0)
	n, err := exec.ExecuteSelect(dict, sel)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, selIndices(sel, n))
}
