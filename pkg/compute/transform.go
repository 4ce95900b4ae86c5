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
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	pg_query "github.com/pganalyze/pg_query_go/v5"

	"github.com/daviszhen/vecexec/pkg/chunk"
	"github.com/daviszhen/vecexec/pkg/common"
)

func getTableColumn(expr *pg_query.ColumnRef) (string, string, error) {
	names := make([]string, 0, len(expr.Fields))
	for _, field := range expr.Fields {
		if field.GetAStar() != nil {
			return "", "", errors.New("* is not an expression")
		}
		names = append(names, field.GetString_().GetSval())
	}
	switch len(names) {
	case 1:
		return "", names[0], nil
	case 2:
		return names[0], names[1], nil
	default:
		return "", "", errors.Newf("unexpected column reference %s", strings.Join(names, "."))
	}
}

func getFuncName(expr *pg_query.FuncCall) (string, error) {
	for _, node := range expr.Funcname {
		sval := node.GetString_().GetSval()
		if sval == "pg_catalog" {
			continue
		}
		return sval, nil
	}
	return "", errors.New("no function name")
}

// TransformExpr converts a parsed expression into an unbound Expr.
func TransformExpr(expr *pg_query.Node) (*Expr, error) {
	if expr == nil {
		return nil, errors.New("nil expression")
	}
	switch realExpr := expr.GetNode().(type) {
	case *pg_query.Node_ColumnRef:
		table, column, err := getTableColumn(realExpr.ColumnRef)
		if err != nil {
			return nil, err
		}
		return NewColumnExpr(table, column), nil
	case *pg_query.Node_AConst:
		return transformAConst(realExpr.AConst)
	case *pg_query.Node_AExpr:
		return transformAExpr(realExpr.AExpr)
	case *pg_query.Node_BoolExpr:
		return transformBoolExpr(realExpr.BoolExpr)
	case *pg_query.Node_NullTest:
		arg, err := TransformExpr(realExpr.NullTest.Arg)
		if err != nil {
			return nil, err
		}
		if realExpr.NullTest.Nulltesttype == pg_query.NullTestType_IS_NOT_NULL {
			return NewOpExpr(ET_IsNotNull, arg), nil
		}
		return NewOpExpr(ET_IsNull, arg), nil
	case *pg_query.Node_FuncCall:
		return transformFuncCall(realExpr.FuncCall)
	case *pg_query.Node_TypeCast:
		arg, err := TransformExpr(realExpr.TypeCast.Arg)
		if err != nil {
			return nil, err
		}
		typ, err := transformTypeName(realExpr.TypeCast.TypeName)
		if err != nil {
			return nil, err
		}
		ret := NewOpExpr(ET_Cast, arg)
		ret.DataTyp = typ
		return ret, nil
	case *pg_query.Node_CollateClause:
		arg, err := TransformExpr(realExpr.CollateClause.Arg)
		if err != nil {
			return nil, err
		}
		return newCollateExpr(arg, realExpr.CollateClause.Collname), nil
	default:
		return nil, errors.Newf("unsupported expression %T", realExpr)
	}
}

func collationName(names []*pg_query.Node) string {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, strings.ToLower(name.GetString_().GetSval()))
	}
	return strings.Join(parts, ".")
}

func newCollateExpr(arg *Expr, names []*pg_query.Node) *Expr {
	ret := NewOpExpr(ET_Collate, arg)
	ret.Svalue = collationName(names)
	return ret
}

func transformAConst(expr *pg_query.A_Const) (*Expr, error) {
	if expr.Isnull {
		return NewConstExpr(chunk.NullValue(common.Null())), nil
	}
	switch realExpr := expr.GetVal().(type) {
	case *pg_query.A_Const_Sval:
		return NewConstExpr(chunk.VarcharValue(realExpr.Sval.Sval)), nil
	case *pg_query.A_Const_Ival:
		return NewConstExpr(chunk.IntegerValue(realExpr.Ival.Ival)), nil
	case *pg_query.A_Const_Boolval:
		return NewConstExpr(chunk.BoolValue(realExpr.Boolval.Boolval)), nil
	case *pg_query.A_Const_Fval:
		return transformNumeric(realExpr.Fval.Fval)
	default:
		return nil, errors.Newf("unsupported constant %T", realExpr)
	}
}

// transformNumeric types an integer literal beyond int32 as bigint and
// a literal with a fraction as the narrowest decimal holding it.
// Exponents and wide literals become double.
func transformNumeric(s string) (*Expr, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return NewConstExpr(chunk.BigintValue(i)), nil
	}
	if !strings.ContainsAny(s, "eE") {
		intPart, fracPart, _ := strings.Cut(strings.TrimLeft(s, "+-"), ".")
		intPart = strings.TrimLeft(intPart, "0")
		width := len(intPart) + len(fracPart)
		if width <= common.DecimalMaxWidth {
			return NewConstExpr(chunk.DecimalValue(s, max(width, 1), len(fracPart))), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "numeric literal %q", s)
	}
	return NewConstExpr(chunk.DoubleValue(f)), nil
}

var operatorSubTyp = map[string]ET_SubTyp{
	"=":  ET_Equal,
	"<>": ET_NotEqual,
	"!=": ET_NotEqual,
	"<":  ET_Less,
	"<=": ET_LessEqual,
	">":  ET_Greater,
	">=": ET_GreaterEqual,
	"+":  ET_Add,
	"-":  ET_Sub,
	"*":  ET_Mul,
	"/":  ET_Div,
	"%":  ET_Mod,
}

func transformAExpr(expr *pg_query.A_Expr) (*Expr, error) {
	opName := ""
	if len(expr.Name) > 0 {
		opName = expr.Name[0].GetString_().GetSval()
	}
	switch expr.Kind {
	case pg_query.A_Expr_Kind_AEXPR_BETWEEN, pg_query.A_Expr_Kind_AEXPR_NOT_BETWEEN:
		return transformBetween(expr)
	case pg_query.A_Expr_Kind_AEXPR_IN:
		return transformIn(expr, opName)
	case pg_query.A_Expr_Kind_AEXPR_OP:
	default:
		return nil, errors.Newf("unsupported operator kind %v", expr.Kind)
	}

	right, err := TransformExpr(expr.Rexpr)
	if err != nil {
		return nil, err
	}
	if expr.Lexpr == nil {
		switch opName {
		case "-":
			return NewOpExpr(ET_Neg, right), nil
		case "+":
			return right, nil
		default:
			return nil, errors.Newf("unsupported prefix operator %q", opName)
		}
	}
	left, err := TransformExpr(expr.Lexpr)
	if err != nil {
		return nil, err
	}
	if opName == "||" {
		return NewFuncExpr(FuncConcat, left, right), nil
	}
	op, has := operatorSubTyp[opName]
	if !has {
		return nil, errors.Newf("unsupported operator %q", opName)
	}
	return NewOpExpr(op, left, right), nil
}

func transformBetween(expr *pg_query.A_Expr) (*Expr, error) {
	x, err := TransformExpr(expr.Lexpr)
	if err != nil {
		return nil, err
	}
	bounds := expr.Rexpr.GetList().GetItems()
	if len(bounds) != 2 {
		return nil, errors.Newf("between needs two bounds, got %d", len(bounds))
	}
	lo, err := TransformExpr(bounds[0])
	if err != nil {
		return nil, err
	}
	hi, err := TransformExpr(bounds[1])
	if err != nil {
		return nil, err
	}
	ret := NewOpExpr(ET_Between, x, lo, hi)
	if expr.Kind == pg_query.A_Expr_Kind_AEXPR_NOT_BETWEEN {
		ret = NewOpExpr(ET_Not, ret)
	}
	return ret, nil
}

// transformIn rewrites x IN (a, b) into x = a OR x = b.
func transformIn(expr *pg_query.A_Expr, opName string) (*Expr, error) {
	x, err := TransformExpr(expr.Lexpr)
	if err != nil {
		return nil, err
	}
	items := expr.Rexpr.GetList().GetItems()
	if len(items) == 0 {
		return nil, errors.New("empty IN list")
	}
	op := ET_Equal
	if opName == "<>" {
		op = ET_NotEqual
	}
	children := make([]*Expr, 0, len(items))
	for i, item := range items {
		val, err := TransformExpr(item)
		if err != nil {
			return nil, err
		}
		lhs := x
		if i > 0 {
			lhs = x.copy()
		}
		children = append(children, NewOpExpr(op, lhs, val))
	}
	if len(children) == 1 {
		return children[0], nil
	}
	if op == ET_NotEqual {
		return NewOpExpr(ET_And, children...), nil
	}
	return NewOpExpr(ET_Or, children...), nil
}

func transformBoolExpr(expr *pg_query.BoolExpr) (*Expr, error) {
	children := make([]*Expr, 0, len(expr.Args))
	for _, arg := range expr.Args {
		child, err := TransformExpr(arg)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	switch expr.Boolop {
	case pg_query.BoolExprType_AND_EXPR:
		return NewOpExpr(ET_And, children...), nil
	case pg_query.BoolExprType_OR_EXPR:
		return NewOpExpr(ET_Or, children...), nil
	case pg_query.BoolExprType_NOT_EXPR:
		if len(children) != 1 {
			return nil, errors.Newf("not takes one argument, got %d", len(children))
		}
		return NewOpExpr(ET_Not, children[0]), nil
	default:
		return nil, errors.Newf("unsupported bool expr %v", expr.Boolop)
	}
}

func transformFuncCall(expr *pg_query.FuncCall) (*Expr, error) {
	name, err := getFuncName(expr)
	if err != nil {
		return nil, err
	}
	if expr.AggStar || expr.AggDistinct || len(expr.AggOrder) != 0 || expr.Over != nil {
		return nil, errors.Newf("aggregate %s in a scalar expression", name)
	}
	args := make([]*Expr, 0, len(expr.Args))
	for _, arg := range expr.Args {
		child, err := TransformExpr(arg)
		if err != nil {
			return nil, err
		}
		args = append(args, child)
	}
	return NewFuncExpr(name, args...), nil
}

func transformTypeName(typName *pg_query.TypeName) (common.LType, error) {
	if typName == nil || len(typName.Names) == 0 {
		return common.LType{}, errors.New("cast without type")
	}
	name := typName.Names[len(typName.Names)-1].GetString_().GetSval()
	mods := make([]int, 0, len(typName.Typmods))
	for _, mod := range typName.Typmods {
		mods = append(mods, int(mod.GetAConst().GetIval().GetIval()))
	}
	switch strings.ToLower(name) {
	case "bool", "boolean":
		return common.BooleanType(), nil
	case "int2", "smallint":
		return common.SmallintType(), nil
	case "int4", "int", "integer":
		return common.IntegerType(), nil
	case "int8", "bigint":
		return common.BigintType(), nil
	case "float4", "real":
		return common.FloatType(), nil
	case "float8", "double":
		return common.DoubleType(), nil
	case "varchar", "text", "bpchar":
		return common.VarcharType(), nil
	case "numeric", "decimal":
		width, scale := common.DecimalMaxWidth, 3
		if len(mods) > 0 {
			width, scale = mods[0], 0
		}
		if len(mods) > 1 {
			scale = mods[1]
		}
		if width < 1 || width > common.DecimalMaxWidth || scale < 0 || scale > width {
			return common.LType{}, errors.Newf("decimal(%d,%d) is out of range", width, scale)
		}
		return common.DecimalType(width, scale), nil
	default:
		return common.LType{}, errors.Newf("unsupported type %s", name)
	}
}
