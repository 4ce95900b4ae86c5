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

	"github.com/xlab/treeprint"
)

// Explain renders the operator tree of root.
func Explain(root PhysicalOperator) string {
	tree := treeprint.NewWithRoot("Plan:")
	root.Explain(tree)
	return tree.String()
}

func (scan *PhysicalTableScan) Explain(tree treeprint.Tree) {
	cols := make([]string, len(scan._columnIds))
	defs := scan._table.Columns()
	for i, id := range scan._columnIds {
		if id < 0 {
			cols[i] = "rowid"
		} else {
			cols[i] = defs[id].Name
		}
	}
	tree.AddMetaNode(scan.Type().String(),
		fmt.Sprintf("%s [%s]", scan._table.Name(), strings.Join(cols, ", ")))
}

func (filter *PhysicalFilter) Explain(tree treeprint.Tree) {
	branch := tree.AddBranch(filter.Type().String())
	filter._filter.Print(branch.AddBranch("filter"), "")
	filter._child.Explain(branch)
}

func (proj *PhysicalProjection) Explain(tree treeprint.Tree) {
	branch := tree.AddBranch(proj.Type().String())
	WriteExprsTree(branch.AddBranch("exprs"), proj._exprs)
	proj._child.Explain(branch)
}
