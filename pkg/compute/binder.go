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
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/daviszhen/vecexec/pkg/catalog"
	"github.com/daviszhen/vecexec/pkg/common"
	"github.com/daviszhen/vecexec/pkg/storage"
)

// BindContext resolves column names against the columns of one table.
type BindContext struct {
	table string
	names []string
	typs  []common.LType
}

func NewBindContext(table string, columns []*storage.ColumnDefinition) *BindContext {
	ctx := &BindContext{table: strings.ToLower(table)}
	for _, col := range columns {
		ctx.names = append(ctx.names, strings.ToLower(col.Name))
		ctx.typs = append(ctx.typs, col.Type)
	}
	return ctx
}

func (ctx *BindContext) GetMatchingBinding(table, column string) (int, common.LType, error) {
	if table != "" && !strings.EqualFold(table, ctx.table) {
		return -1, common.LType{}, errors.Newf("table %s is not in scope", table)
	}
	for i, name := range ctx.names {
		if strings.EqualFold(name, column) {
			return i, ctx.typs[i], nil
		}
	}
	return -1, common.LType{}, errors.Newf("column %s does not exist in %s", column, ctx.table)
}

// ExprBinder resolves columns, functions, casts and collations of an
// unbound expression.
type ExprBinder struct {
	ctx     *BindContext
	funcs   *FunctionBinder
	catalog *catalog.Catalog
}

func NewExprBinder(ctx *BindContext, funcs *FunctionBinder, cat *catalog.Catalog) *ExprBinder {
	return &ExprBinder{
		ctx:     ctx,
		funcs:   funcs,
		catalog: cat,
	}
}

// Bind returns a bound copy of expr. expr is left unbound.
func (b *ExprBinder) Bind(expr *Expr) (*Expr, error) {
	return b.bindExpr(expr.copy())
}

func (b *ExprBinder) bindExpr(expr *Expr) (*Expr, error) {
	switch expr.Typ {
	case ET_Column:
		idx, typ, err := b.ctx.GetMatchingBinding(expr.Table, expr.Name)
		if err != nil {
			return nil, err
		}
		expr.Table = b.ctx.table
		expr.ColIdx = idx
		expr.DataTyp = typ
		return expr, nil
	case ET_Const:
		expr.DataTyp = expr.ConstValue.Typ
		return expr, nil
	case ET_Func:
	default:
		return nil, errors.Newf("unsupported expression type %v", expr.Typ)
	}

	children := make([]*Expr, len(expr.Children))
	for i, child := range expr.Children {
		bound, err := b.bindExpr(child)
		if err != nil {
			return nil, err
		}
		children[i] = bound
	}

	switch expr.SubTyp {
	case ET_Equal, ET_NotEqual, ET_Less, ET_LessEqual, ET_Greater, ET_GreaterEqual:
		return b.bindCompare(expr.SubTyp, children[0], children[1])
	case ET_Add, ET_Sub, ET_Mul, ET_Div, ET_Mod:
		return b.bindArith(expr.SubTyp, children[0], children[1])
	case ET_Neg:
		return b.funcs.BindScalarFunc(ET_Neg.String(), children, ET_Neg)
	case ET_And, ET_Or, ET_Not:
		return b.bindLogical(expr.SubTyp, children)
	case ET_Between:
		return b.bindBetween(children[0], children[1], children[2])
	case ET_IsNull, ET_IsNotNull:
		return &Expr{
			Typ:      ET_Func,
			SubTyp:   expr.SubTyp,
			DataTyp:  common.BooleanType(),
			Children: children,
		}, nil
	case ET_Cast:
		return AddCastToType(children[0], expr.DataTyp)
	case ET_Collate:
		return b.bindCollate(children[0], expr.Svalue)
	case ET_SubFunc:
		ret, err := b.funcs.BindScalarFunc(expr.Svalue, children, ET_SubFunc)
		if err != nil {
			return nil, err
		}
		ret.Svalue = expr.Svalue
		return ret, nil
	default:
		return nil, errors.Newf("unsupported operator %v", expr.SubTyp)
	}
}

// decideResultType is the type both operands are cast to. A string
// compared with a number is read as that number.
func decideResultType(left common.LType, right common.LType) common.LType {
	resultTyp := common.MaxLType(left, right)
	if resultTyp.Id == common.LTID_VARCHAR {
		if left.IsNumeric() || left.Id == common.LTID_BOOLEAN {
			return left
		}
		if right.IsNumeric() || right.Id == common.LTID_BOOLEAN {
			return right
		}
	}
	return resultTyp
}

func castAll(typ common.LType, exprs ...*Expr) ([]*Expr, error) {
	ret := make([]*Expr, len(exprs))
	for i, e := range exprs {
		cast, err := AddCastToType(e, typ)
		if err != nil {
			return nil, err
		}
		ret[i] = cast
	}
	return ret, nil
}

func commonCollation(exprs ...*Expr) (string, error) {
	collation := ""
	for _, e := range exprs {
		if e.DataTyp.Id != common.LTID_VARCHAR || e.DataTyp.Collation == "" {
			continue
		}
		if collation != "" && collation != e.DataTyp.Collation {
			return "", errors.Newf("collations %s and %s do not match",
				collation, e.DataTyp.Collation)
		}
		collation = e.DataTyp.Collation
	}
	return collation, nil
}

func (b *ExprBinder) bindCompare(op ET_SubTyp, left, right *Expr) (*Expr, error) {
	typ := decideResultType(left.DataTyp, right.DataTyp)
	if typ.Id == common.LTID_VARCHAR {
		collation, err := commonCollation(left, right)
		if err != nil {
			return nil, err
		}
		typ = common.CollatedVarcharType(collation)
	}
	args, err := castAll(typ, left, right)
	if err != nil {
		return nil, err
	}
	if typ.Id == common.LTID_VARCHAR {
		equality := op == ET_Equal || op == ET_NotEqual
		for i := range args {
			args[i], err = b.applyCollation(args[i], typ.Collation, equality)
			if err != nil {
				return nil, err
			}
		}
	}
	return b.funcs.BindScalarFunc(op.String(), args, op)
}

func (b *ExprBinder) bindArith(op ET_SubTyp, left, right *Expr) (*Expr, error) {
	typ := decideResultType(left.DataTyp, right.DataTyp)
	args, err := castAll(typ, left, right)
	if err != nil {
		return nil, err
	}
	return b.funcs.BindScalarFunc(op.String(), args, op)
}

func (b *ExprBinder) bindBetween(x, lo, hi *Expr) (*Expr, error) {
	typ := decideResultType(x.DataTyp, lo.DataTyp)
	typ = decideResultType(typ, hi.DataTyp)
	if typ.Id == common.LTID_NULL {
		typ = common.BooleanType()
	}
	if typ.Id == common.LTID_VARCHAR {
		collation, err := commonCollation(x, lo, hi)
		if err != nil {
			return nil, err
		}
		typ = common.CollatedVarcharType(collation)
	}
	args, err := castAll(typ, x, lo, hi)
	if err != nil {
		return nil, err
	}
	if typ.Id == common.LTID_VARCHAR {
		for i := range args {
			args[i], err = b.applyCollation(args[i], typ.Collation, false)
			if err != nil {
				return nil, err
			}
		}
	}
	return &Expr{
		Typ:      ET_Func,
		SubTyp:   ET_Between,
		DataTyp:  common.BooleanType(),
		Children: args,
	}, nil
}

func (b *ExprBinder) bindLogical(op ET_SubTyp, children []*Expr) (*Expr, error) {
	if op == ET_Not && len(children) != 1 {
		return nil, errors.Newf("not takes one argument, got %d", len(children))
	}
	if op != ET_Not && len(children) < 2 {
		return nil, errors.Newf("%s takes at least two arguments", op)
	}
	for i, child := range children {
		if child.DataTyp.Id == common.LTID_NULL {
			cast, err := AddCastToType(child, common.BooleanType())
			if err != nil {
				return nil, err
			}
			children[i] = cast
			continue
		}
		if child.DataTyp.Id != common.LTID_BOOLEAN {
			return nil, errors.Newf("argument of %s must be boolean, not %s",
				op, child.DataTyp)
		}
	}
	return &Expr{
		Typ:      ET_Func,
		SubTyp:   op,
		DataTyp:  common.BooleanType(),
		Children: children,
	}, nil
}

// bindCollate checks the collation and retypes child. Binary drops the
// collation of child.
func (b *ExprBinder) bindCollate(child *Expr, collation string) (*Expr, error) {
	if child.DataTyp.Id != common.LTID_VARCHAR && child.DataTyp.Id != common.LTID_NULL {
		return nil, errors.Newf("collate on %s", child.DataTyp)
	}
	if _, err := b.collations(collation); err != nil {
		return nil, err
	}
	if collation == catalog.CollationBinary {
		collation = ""
	}
	return AddCastToType(child, common.CollatedVarcharType(collation))
}

// collations resolves a dotted collation list. At most one collation of
// the list may be non combinable.
func (b *ExprBinder) collations(collation string) ([]*catalog.CollationInfo, error) {
	if b.catalog == nil {
		return nil, errors.Newf("collation %s without catalog", collation)
	}
	parts := strings.Split(collation, ".")
	ret := make([]*catalog.CollationInfo, 0, len(parts))
	nonCombinable := 0
	for _, part := range parts {
		info, err := b.catalog.GetCollation(part)
		if err != nil {
			return nil, err
		}
		if !info.Combinable {
			nonCombinable++
		}
		ret = append(ret, info)
	}
	if len(parts) > 1 && nonCombinable > 1 {
		return nil, errors.Newf("collation %s combines more than one non combinable collation", collation)
	}
	return ret, nil
}

// applyCollation wraps e in the key functions of collation when the
// comparison needs them.
func (b *ExprBinder) applyCollation(e *Expr, collation string, equality bool) (*Expr, error) {
	if collation == "" {
		return e, nil
	}
	infos, err := b.collations(collation)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if !info.RequiredFor(equality) {
			continue
		}
		e, err = b.funcs.BindScalarFunc(info.Function, []*Expr{e}, ET_SubFunc)
		if err != nil {
			return nil, err
		}
		e.Svalue = info.Function
	}
	return e, nil
}
