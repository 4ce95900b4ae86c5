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
	"context"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	pg_query "github.com/pganalyze/pg_query_go/v5"
	"go.uber.org/zap"

	"github.com/daviszhen/vecexec/pkg/catalog"
	"github.com/daviszhen/vecexec/pkg/common"
	"github.com/daviszhen/vecexec/pkg/index"
	"github.com/daviszhen/vecexec/pkg/parser"
	"github.com/daviszhen/vecexec/pkg/storage"
	"github.com/daviszhen/vecexec/pkg/util"
)

// Builder turns DDL statements into catalog changes and operators.
type Builder struct {
	cfg     *util.Config
	catalog *catalog.Catalog
	funcs   *FunctionBinder
}

func NewBuilder(cfg *util.Config, cat *catalog.Catalog) *Builder {
	if cfg == nil {
		cfg = util.DefaultConfig()
	}
	return &Builder{
		cfg:     cfg,
		catalog: cat,
		funcs:   NewFunctionBinder(NewFunctionList(cfg.Catalog.Languages)),
	}
}

func (b *Builder) Catalog() *catalog.Catalog {
	return b.catalog
}

// RunDDL executes CREATE TABLE and CREATE INDEX statements in order.
func (b *Builder) RunDDL(ctx context.Context, sql string) error {
	stmts, err := parser.Parse(sql)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		switch impl := stmt.GetStmt().GetNode().(type) {
		case *pg_query.Node_CreateStmt:
			if _, err = b.BuildCreateTable(impl.CreateStmt); err != nil {
				return err
			}
		case *pg_query.Node_IndexStmt:
			op, err := b.BuildCreateIndex(impl.IndexStmt)
			if err != nil {
				return err
			}
			if op == nil {
				continue
			}
			if b.cfg.Debug.PrintPlan {
				util.Info("create index plan", zap.String("plan", Explain(op)))
			}
			if _, err = op.Build(ctx, b.cfg.Build.Threads); err != nil {
				return err
			}
		default:
			return errors.Newf("unsupported statement %T", impl)
		}
	}
	return nil
}

func (b *Builder) BuildCreateTable(stmt *pg_query.CreateStmt) (*catalog.TableEntry, error) {
	name := stmt.GetRelation().GetRelname()
	if stmt.GetIfNotExists() {
		if ent, err := b.catalog.GetTable(name); err == nil {
			return ent, nil
		}
	}
	colDefs := make([]*storage.ColumnDefinition, 0)
	for _, node := range stmt.GetTableElts() {
		colDef := node.GetColumnDef()
		if colDef == nil {
			return nil, errors.Newf("table %s: unsupported table element %T", name, node.GetNode())
		}
		typ, err := transformTypeName(colDef.TypeName)
		if err != nil {
			return nil, errors.Wrapf(err, "column %s", colDef.Colname)
		}
		if coll := colDef.GetCollClause(); coll != nil {
			if typ.Id != common.LTID_VARCHAR {
				return nil, errors.Newf("column %s: collate on %s", colDef.Colname, typ)
			}
			collation := collationName(coll.Collname)
			binder := NewExprBinder(nil, b.funcs, b.catalog)
			if _, err = binder.collations(collation); err != nil {
				return nil, err
			}
			if collation != catalog.CollationBinary {
				typ = common.CollatedVarcharType(collation)
			}
		}
		for _, cons := range colDef.Constraints {
			if cons.GetConstraint().GetContype() != pg_query.ConstrType_CONSTR_NULL {
				return nil, errors.Newf("column %s: unsupported constraint %v",
					colDef.Colname, cons.GetConstraint().GetContype())
			}
		}
		colDefs = append(colDefs, &storage.ColumnDefinition{
			Name: colDef.Colname,
			Type: typ,
		})
	}
	return b.catalog.CreateTable(name, colDefs)
}

// BuildCreateIndex plans CREATE INDEX as
// scan -> [filter] -> projection(keys, rowid) -> create index.
// It returns nil when the index exists and IF NOT EXISTS is given.
func (b *Builder) BuildCreateIndex(stmt *pg_query.IndexStmt) (*PhysicalCreateIndex, error) {
	if stmt.Idxname == "" {
		return nil, errors.New("index without name")
	}
	if _, err := b.catalog.GetIndex(stmt.Idxname); err == nil {
		if stmt.IfNotExists {
			util.Info("index exists", zap.String("index", stmt.Idxname))
			return nil, nil
		}
		return nil, errors.Newf("index %s already exists", stmt.Idxname)
	}
	tabEnt, err := b.catalog.GetTable(stmt.GetRelation().GetRelname())
	if err != nil {
		return nil, err
	}
	idxTyp, err := index.ParseIndexType(stmt.AccessMethod)
	if err != nil {
		return nil, err
	}
	info := &CreateIndexInfo{
		IndexName:   strings.ToLower(stmt.Idxname),
		Table:       tabEnt.Name(),
		IndexType:   idxTyp,
		IfNotExists: stmt.IfNotExists,
	}
	switch {
	case stmt.Primary:
		info.Constraint = index.IndexConstraintTypePrimary
	case stmt.Unique:
		info.Constraint = index.IndexConstraintTypeUnique
	}

	for _, param := range stmt.IndexParams {
		elem := param.GetIndexElem()
		if elem == nil {
			return nil, errors.Newf("unsupported index parameter %T", param.GetNode())
		}
		var key *Expr
		if elem.Name != "" {
			key = NewColumnExpr("", elem.Name)
		} else {
			if key, err = TransformExpr(elem.Expr); err != nil {
				return nil, err
			}
		}
		if len(elem.Collation) != 0 {
			key = newCollateExpr(key, elem.Collation)
		}
		info.UnboundExprs = append(info.UnboundExprs, key)
	}
	if stmt.WhereClause != nil {
		if info.UnboundPredicate, err = TransformExpr(stmt.WhereClause); err != nil {
			return nil, err
		}
	}

	binder := NewExprBinder(
		NewBindContext(tabEnt.Name(), tabEnt.GetColumns()),
		b.funcs,
		b.catalog)
	for _, key := range info.UnboundExprs {
		bound, err := binder.Bind(key)
		if err != nil {
			return nil, err
		}
		// keys of a collated string are its sort keys
		bound, err = binder.applyCollation(bound, bound.DataTyp.Collation, false)
		if err != nil {
			return nil, err
		}
		info.Exprs = append(info.Exprs, bound)
	}
	if info.UnboundPredicate != nil {
		if info.Predicate, err = binder.Bind(info.UnboundPredicate); err != nil {
			return nil, err
		}
		if info.Predicate.DataTyp.Id != common.LTID_BOOLEAN {
			return nil, errors.Newf("index predicate must be boolean, not %s", info.Predicate.DataTyp)
		}
	}

	idx, err := index.NewIndex(idxTyp, info.IndexName, info.KeyTypes(), info.Constraint)
	if err != nil {
		return nil, err
	}
	op, err := b.planCreateIndex(tabEnt.GetStorage(), info, idx)
	if err != nil {
		return nil, err
	}
	op._catalog = b.catalog
	return op, nil
}

// planCreateIndex scans only the columns the keys and the predicate read.
func (b *Builder) planCreateIndex(
	table *storage.DataTable,
	info *CreateIndexInfo,
	idx *index.Index,
) (*PhysicalCreateIndex, error) {
	var cols []int
	for _, e := range info.Exprs {
		cols = collectColumns(e, cols)
	}
	if info.Predicate != nil {
		cols = collectColumns(info.Predicate, cols)
	}
	slices.Sort(cols)
	cols = slices.Compact(cols)

	// table column -> scan column
	colMap := make(map[int]int, len(cols))
	for i, col := range cols {
		colMap[col] = i
	}
	scanIds := append(slices.Clone(cols), storage.RowIdColumn)
	scan := NewPhysicalTableScan(table, scanIds)
	scan.SetDebug(b.cfg.Debug)
	var root PhysicalOperator = scan

	if info.Predicate != nil {
		root = NewPhysicalFilter(root, remapColumns(info.Predicate.copy(), colMap))
	}
	projs := make([]*Expr, 0, len(info.Exprs)+1)
	for _, e := range info.Exprs {
		projs = append(projs, remapColumns(e.copy(), colMap))
	}
	projs = append(projs, NewBoundColumnExpr("rowid", len(cols), common.UbigintType()))
	root = NewPhysicalProjection(root, projs)
	return NewPhysicalCreateIndex(root, info, idx, b.cfg.Build.NullPolicy)
}

func remapColumns(e *Expr, colMap map[int]int) *Expr {
	if e.Typ == ET_Column {
		e.ColIdx = colMap[e.ColIdx]
	}
	for _, child := range e.Children {
		remapColumns(child, colMap)
	}
	return e
}
