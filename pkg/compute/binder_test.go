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

	"github.com/daviszhen/vecexec/pkg/catalog"
	"github.com/daviszhen/vecexec/pkg/common"
	"github.com/daviszhen/vecexec/pkg/parser"
	"github.com/daviszhen/vecexec/pkg/storage"
	"github.com/daviszhen/vecexec/pkg/util"
)

func testColumns() []*storage.ColumnDefinition {
	return []*storage.ColumnDefinition{
		{Name: "a", Type: common.IntegerType()},
		{Name: "b", Type: common.VarcharType()},
		{Name: "c", Type: common.CollatedVarcharType(catalog.CollationNocase)},
		{Name: "d", Type: common.DecimalType(10, 2)},
		{Name: "e", Type: common.BigintType()},
		{Name: "f", Type: common.CollatedVarcharType("en")},
		{Name: "g", Type: common.CollatedVarcharType("da")},
	}
}

func newTestBinder() *ExprBinder {
	cfg := util.DefaultConfig()
	return NewExprBinder(
		NewBindContext("t1", testColumns()),
		NewFunctionBinder(NewFunctionList(cfg.Catalog.Languages)),
		catalog.NewCatalog(cfg.Catalog))
}

func transformSQL(t *testing.T, sql string) *Expr {
	node, err := parser.ParseExpr(sql)
	require.NoError(t, err, sql)
	expr, err := TransformExpr(node)
	require.NoError(t, err, sql)
	return expr
}

func bindSQL(t *testing.T, binder *ExprBinder, sql string) *Expr {
	bound, err := binder.Bind(transformSQL(t, sql))
	require.NoError(t, err, sql)
	require.True(t, bound.IsBound(), sql)
	return bound
}

func Test_transform_expr(t *testing.T) {
	cases := []struct {
		sql    string
		expect string
	}{
		{"a + 1", "a + 1"},
		{"t1.a", "t1.a"},
		{"-a", "negate(a)"},
		{"b || 'x'", "concat(b, 'x')"},
		{"a between 1 and 3", "a between 1 and 3"},
		{"a not between 1 and 3", "not(a between 1 and 3)"},
		{"a in (1, 2)", "(a = 1) or (a = 2)"},
		{"a not in (1, 2)", "(a <> 1) and (a <> 2)"},
		{"a is not null", "a is not null"},
		{"upper(b)", "upper(b)"},
		{"b collate nocase", "b collate nocase"},
		{"cast(b as bigint)", "cast(b as BIGINT)"},
	}
	for _, c := range cases {
		t.Run(c.sql, func(t *testing.T) {
			assert.Equal(t, c.expect, transformSQL(t, c.sql).String())
		})
	}
}

func Test_transform_numeric(t *testing.T) {
	e := transformSQL(t, "12345678901")
	assert.Equal(t, common.LTID_BIGINT, e.DataTyp.Id)
	assert.Equal(t, int64(12345678901), e.ConstValue.I64)

	e = transformSQL(t, "12.50")
	assert.Equal(t, common.DecimalType(4, 2), e.DataTyp)

	e = transformSQL(t, "1.5e3")
	assert.Equal(t, common.LTID_DOUBLE, e.DataTyp.Id)
	assert.Equal(t, 1500.0, e.ConstValue.F64)

	e = transformSQL(t, "NULL")
	assert.True(t, e.IsNull())

	e = transformSQL(t, "cast(b as decimal(12, 4))")
	assert.Equal(t, common.DecimalType(12, 4), e.DataTyp)

	node, err := parser.ParseExpr("count(*)")
	require.NoError(t, err)
	_, err = TransformExpr(node)
	assert.Error(t, err)
}

func Test_bind_expr(t *testing.T) {
	binder := newTestBinder()

	e := bindSQL(t, binder, "a + 1")
	assert.Equal(t, common.IntegerType(), e.DataTyp)
	assert.Equal(t, 0, e.Children[0].ColIdx)

	//a is widened to bigint
	e = bindSQL(t, binder, "e + a")
	assert.Equal(t, common.BigintType(), e.DataTyp)
	assert.Equal(t, ET_Cast, e.Children[1].SubTyp)

	//the string constant is read as a number and folded
	e = bindSQL(t, binder, "a > '5'")
	assert.Equal(t, common.BooleanType(), e.DataTyp)
	assert.Equal(t, ET_Const, e.Children[1].Typ)
	assert.Equal(t, common.IntegerType(), e.Children[1].DataTyp)
	assert.Equal(t, int64(5), e.Children[1].ConstValue.I64)

	e = bindSQL(t, binder, "d * 2")
	assert.Equal(t, common.LTID_DECIMAL, e.DataTyp.Id)

	e = bindSQL(t, binder, "a between 1 and e")
	assert.Equal(t, ET_Between, e.SubTyp)
	for _, child := range e.Children {
		assert.Equal(t, common.BigintType(), child.DataTyp)
	}

	e = bindSQL(t, binder, "a in (1, 2, 3)")
	assert.Equal(t, ET_Or, e.SubTyp)
	assert.Len(t, e.Children, 3)

	e = bindSQL(t, binder, "not (a > 1) and b is null")
	assert.Equal(t, ET_And, e.SubTyp)
	assert.Equal(t, ET_Not, e.Children[0].SubTyp)
	assert.Equal(t, ET_IsNull, e.Children[1].SubTyp)

	e = bindSQL(t, binder, "length(upper(b))")
	assert.Equal(t, common.BigintType(), e.DataTyp)
	assert.Equal(t, FuncLength, e.Svalue)

	e = bindSQL(t, binder, "substring(b, 2, 3)")
	assert.Equal(t, common.VarcharType(), e.DataTyp)
	assert.Equal(t, FuncSubstring, e.Svalue)

	e = bindSQL(t, binder, "cast(b as integer)")
	assert.Equal(t, ET_Cast, e.SubTyp)
	assert.Equal(t, common.IntegerType(), e.DataTyp)

	e = bindSQL(t, binder, "-d")
	assert.Equal(t, common.DecimalType(10, 2), e.DataTyp)
}

func Test_bind_expr_unbound_source(t *testing.T) {
	binder := newTestBinder()
	unbound := transformSQL(t, "a + 1 > e")
	bound, err := binder.Bind(unbound)
	require.NoError(t, err)
	assert.True(t, bound.IsBound())
	assert.False(t, unbound.IsBound())
	assert.Equal(t, "a + 1 > e", unbound.String())
}

func Test_bind_expr_errors(t *testing.T) {
	binder := newTestBinder()
	for _, sql := range []string{
		"z + 1",
		"t2.a",
		"a + 1 and true",
		"nosuchfunc(a)",
		"b collate nosuch",
		"a collate nocase",
		"c = f",
		"b collate \"da.en\"",
	} {
		t.Run(sql, func(t *testing.T) {
			_, err := binder.Bind(transformSQL(t, sql))
			assert.Error(t, err)
		})
	}
}

// collateFuncs lists the collation functions applied to e, outermost first.
func collateFuncs(e *Expr) []string {
	var ret []string
	for e.Typ == ET_Func && e.SubTyp == ET_SubFunc &&
		len(e.Svalue) > len(catalog.CollateFunctionPrefix) &&
		e.Svalue[:len(catalog.CollateFunctionPrefix)] == catalog.CollateFunctionPrefix {
		ret = append(ret, e.Svalue)
		e = e.Children[0]
	}
	return ret
}

func Test_bind_collation(t *testing.T) {
	binder := newTestBinder()
	cases := []struct {
		sql    string
		expect []string
	}{
		//nocase matters for equality
		{"c = 'abc'", []string{"collate_nocase"}},
		{"b collate nocase = 'abc'", []string{"collate_nocase"}},
		//language collations keep binary equality
		{"f = 'abc'", nil},
		{"f < 'abc'", []string{"collate_en"}},
		//unless listed as required
		{"g = 'abc'", []string{"collate_da"}},
		{"b = 'abc'", nil},
		{"c collate binary = 'abc'", nil},
		{"b collate \"en.nocase\" < 'x'", []string{"collate_nocase", "collate_en"}},
	}
	for _, c := range cases {
		t.Run(c.sql, func(t *testing.T) {
			e := bindSQL(t, binder, c.sql)
			require.Len(t, e.Children, 2)
			assert.Equal(t, c.expect, collateFuncs(e.Children[0]))
			assert.Equal(t, c.expect, collateFuncs(e.Children[1]))
		})
	}

	e := bindSQL(t, binder, "c between 'a' and 'b'")
	for _, child := range e.Children {
		assert.Equal(t, []string{"collate_nocase"}, collateFuncs(child))
	}
}
