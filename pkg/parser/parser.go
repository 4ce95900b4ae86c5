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

package parser

import (
	"github.com/cockroachdb/errors"
	pg_query "github.com/pganalyze/pg_query_go/v5"
)

func Parse(s string) ([]*pg_query.RawStmt, error) {
	result, err := pg_query.Parse(s)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %q", s)
	}
	return result.Stmts, nil
}

// ParseOne parses exactly one statement.
func ParseOne(s string) (*pg_query.Node, error) {
	stmts, err := Parse(s)
	if err != nil {
		return nil, err
	}
	if len(stmts) != 1 {
		return nil, errors.Newf("expect one statement, got %d", len(stmts))
	}
	return stmts[0].GetStmt(), nil
}

func ParseIndexStmt(s string) (*pg_query.IndexStmt, error) {
	stmt, err := ParseOne(s)
	if err != nil {
		return nil, err
	}
	ret := stmt.GetIndexStmt()
	if ret == nil {
		return nil, errors.Newf("not a create index statement: %q", s)
	}
	return ret, nil
}

// ParseExpr parses a scalar expression.
func ParseExpr(expr string) (*pg_query.Node, error) {
	stmt, err := ParseOne("SELECT " + expr)
	if err != nil {
		return nil, err
	}
	targets := stmt.GetSelectStmt().GetTargetList()
	if len(targets) != 1 {
		return nil, errors.Newf("expect one expression, got %d", len(targets))
	}
	return targets[0].GetResTarget().GetVal(), nil
}
