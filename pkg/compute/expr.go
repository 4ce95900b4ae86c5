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
	"fmt"
	"strings"

	"github.com/huandu/go-clone"
	"github.com/xlab/treeprint"

	"github.com/daviszhen/vecexec/pkg/chunk"
	"github.com/daviszhen/vecexec/pkg/common"
)

type ET int

const (
	ET_Column ET = iota // column
	ET_Const            // constant
	ET_Func             // function or operator
)

func (et ET) String() string {
	switch et {
	case ET_Column:
		return "column"
	case ET_Const:
		return "const"
	case ET_Func:
		return "func"
	default:
		return fmt.Sprintf("et(%d)", int(et))
	}
}

type ET_SubTyp int

const (
	ET_Invalid ET_SubTyp = iota
	// named function
	ET_SubFunc
	// operator
	ET_Add
	ET_Sub
	ET_Mul
	ET_Div
	ET_Mod
	ET_Neg
	ET_Equal
	ET_NotEqual
	ET_Greater
	ET_GreaterEqual
	ET_Less
	ET_LessEqual
	ET_And
	ET_Or
	ET_Not
	ET_Between
	ET_IsNull
	ET_IsNotNull
	ET_Cast
	// COLLATE of an unbound expression. Binding turns it into a type.
	ET_Collate
)

func (et ET_SubTyp) String() string {
	switch et {
	case ET_SubFunc:
		return "func"
	case ET_Add:
		return "+"
	case ET_Sub:
		return "-"
	case ET_Mul:
		return "*"
	case ET_Div:
		return "/"
	case ET_Mod:
		return "%"
	case ET_Neg:
		return "negate"
	case ET_Equal:
		return "="
	case ET_NotEqual:
		return "<>"
	case ET_Greater:
		return ">"
	case ET_GreaterEqual:
		return ">="
	case ET_Less:
		return "<"
	case ET_LessEqual:
		return "<="
	case ET_And:
		return "and"
	case ET_Or:
		return "or"
	case ET_Not:
		return "not"
	case ET_Between:
		return "between"
	case ET_IsNull:
		return "is null"
	case ET_IsNotNull:
		return "is not null"
	case ET_Cast:
		return "cast"
	case ET_Collate:
		return "collate"
	default:
		panic(fmt.Sprintf("usp %v", int(et)))
	}
}

// Expr is an expression tree. Every node owns its children.
//
// An unbound expression names columns and functions. Binding resolves
// column names to ColIdx and functions to FunImpl.
type Expr struct {
	Typ      ET
	SubTyp   ET_SubTyp
	DataTyp  common.LType
	Children []*Expr

	// column
	Table  string
	Name   string
	ColIdx int

	// constant
	ConstValue *chunk.Value

	// function name of ET_SubFunc, collation of COLLATE
	Svalue  string
	FunImpl *FunctionV2
	Alias   string
}

func NewColumnExpr(table, name string) *Expr {
	return &Expr{
		Typ:    ET_Column,
		Table:  table,
		Name:   name,
		ColIdx: -1,
	}
}

func NewBoundColumnExpr(name string, idx int, typ common.LType) *Expr {
	return &Expr{
		Typ:     ET_Column,
		Name:    name,
		ColIdx:  idx,
		DataTyp: typ,
	}
}

func NewConstExpr(val *chunk.Value) *Expr {
	return &Expr{
		Typ:        ET_Const,
		DataTyp:    val.Typ,
		ConstValue: val,
	}
}

// NewOpExpr is an unbound operator over children.
func NewOpExpr(op ET_SubTyp, children ...*Expr) *Expr {
	return &Expr{
		Typ:      ET_Func,
		SubTyp:   op,
		Children: children,
	}
}

// NewFuncExpr is an unbound call of the named function.
func NewFuncExpr(name string, children ...*Expr) *Expr {
	return &Expr{
		Typ:      ET_Func,
		SubTyp:   ET_SubFunc,
		Svalue:   strings.ToLower(name),
		Children: children,
	}
}

func (e *Expr) IsBound() bool {
	switch e.Typ {
	case ET_Column:
		if e.ColIdx < 0 {
			return false
		}
	case ET_Func:
		switch e.SubTyp {
		case ET_And, ET_Or, ET_Not, ET_Between, ET_IsNull, ET_IsNotNull:
		default:
			if e.FunImpl == nil {
				return false
			}
		}
	}
	for _, child := range e.Children {
		if !child.IsBound() {
			return false
		}
	}
	return true
}

func (e *Expr) IsNull() bool {
	return e.Typ == ET_Const && e.ConstValue.IsNull
}

func (e *Expr) copy() *Expr {
	if e == nil {
		return nil
	}
	return clone.Clone(e).(*Expr)
}

// CopyExprs deep copies exprs.
func CopyExprs(exprs ...*Expr) []*Expr {
	ret := make([]*Expr, 0, len(exprs))
	for _, expr := range exprs {
		ret = append(ret, expr.copy())
	}
	return ret
}

func (e *Expr) equal(o *Expr) bool {
	if e == nil || o == nil {
		return e == o
	}
	if e.Typ != o.Typ ||
		e.SubTyp != o.SubTyp ||
		!e.DataTyp.Equal(o.DataTyp) ||
		e.Table != o.Table ||
		e.Name != o.Name ||
		e.ColIdx != o.ColIdx ||
		e.Svalue != o.Svalue ||
		e.Alias != o.Alias {
		return false
	}
	if (e.ConstValue == nil) != (o.ConstValue == nil) {
		return false
	}
	if e.ConstValue != nil && e.ConstValue.String() != o.ConstValue.String() {
		return false
	}
	if len(e.Children) != len(o.Children) {
		return false
	}
	for i, child := range e.Children {
		if !child.equal(o.Children[i]) {
			return false
		}
	}
	return true
}

func (e *Expr) String() string {
	if e == nil {
		return ""
	}
	switch e.Typ {
	case ET_Column:
		if e.Table != "" {
			return e.Table + "." + e.Name
		}
		return e.Name
	case ET_Const:
		if e.ConstValue.Typ.Id == common.LTID_VARCHAR && !e.ConstValue.IsNull {
			return "'" + e.ConstValue.Str + "'"
		}
		return e.ConstValue.String()
	case ET_Func:
		switch e.SubTyp {
		case ET_SubFunc:
			args := make([]string, len(e.Children))
			for i, child := range e.Children {
				args[i] = child.String()
			}
			return fmt.Sprintf("%s(%s)", e.Svalue, strings.Join(args, ", "))
		case ET_Cast:
			return fmt.Sprintf("cast(%s as %s)", e.Children[0], e.DataTyp)
		case ET_Collate:
			return fmt.Sprintf("%s collate %s", e.Children[0], e.Svalue)
		case ET_Not, ET_Neg:
			return fmt.Sprintf("%s(%s)", e.SubTyp, e.Children[0])
		case ET_IsNull, ET_IsNotNull:
			return fmt.Sprintf("%s %s", e.Children[0], e.SubTyp)
		case ET_Between:
			return fmt.Sprintf("%s between %s and %s",
				e.Children[0], e.Children[1], e.Children[2])
		case ET_And, ET_Or:
			args := make([]string, len(e.Children))
			for i, child := range e.Children {
				args[i] = "(" + child.String() + ")"
			}
			return strings.Join(args, " "+e.SubTyp.String()+" ")
		default:
			return fmt.Sprintf("%s %s %s", e.Children[0], e.SubTyp, e.Children[1])
		}
	default:
		panic(fmt.Sprintf("usp expr type %d", e.Typ))
	}
}

func appendMeta(meta, s string) string {
	if meta == "" {
		return s
	}
	return fmt.Sprintf("%s %s", meta, s)
}

func (e *Expr) Print(tree treeprint.Tree, meta string) {
	if e == nil {
		return
	}
	head := appendMeta(meta, e.DataTyp.String())
	switch e.Typ {
	case ET_Column:
		tree.AddMetaNode(head, fmt.Sprintf("(%s,%d)", e.String(), e.ColIdx))
	case ET_Const:
		tree.AddMetaNode(head, fmt.Sprintf("(%s)", e.String()))
	case ET_Func:
		var branch treeprint.Tree
		switch e.SubTyp {
		case ET_SubFunc:
			branch = tree.AddMetaBranch(head, e.Svalue)
		default:
			branch = tree.AddMetaBranch(head, e.SubTyp.String())
		}
		for _, child := range e.Children {
			child.Print(branch, "")
		}
	default:
		panic(fmt.Sprintf("usp expr type %d", e.Typ))
	}
}

func WriteExprsTree(tree treeprint.Tree, exprs []*Expr) {
	for i, e := range exprs {
		p := tree.AddBranch(fmt.Sprintf("%d", i))
		e.Print(p, "")
	}
}

// collectColumns appends the column indexes e reads.
func collectColumns(e *Expr, cols []int) []int {
	if e.Typ == ET_Column {
		return append(cols, e.ColIdx)
	}
	for _, child := range e.Children {
		cols = collectColumns(child, cols)
	}
	return cols
}
