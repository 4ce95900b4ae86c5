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

package common

import "fmt"

// LTypeId is the logical type id. Values keep the engine's numbering.
type LTypeId int

const (
	LTID_INVALID   LTypeId = 0
	LTID_NULL      LTypeId = 1
	LTID_BOOLEAN   LTypeId = 10
	LTID_TINYINT   LTypeId = 11
	LTID_SMALLINT  LTypeId = 12
	LTID_INTEGER   LTypeId = 13
	LTID_BIGINT    LTypeId = 14
	LTID_DECIMAL   LTypeId = 21
	LTID_FLOAT     LTypeId = 22
	LTID_DOUBLE    LTypeId = 23
	LTID_VARCHAR   LTypeId = 25
	LTID_UTINYINT  LTypeId = 28
	LTID_USMALLINT LTypeId = 29
	LTID_UINTEGER  LTypeId = 30
	LTID_UBIGINT   LTypeId = 31
)

var lTypeIdToStr = map[LTypeId]string{
	LTID_INVALID:   "INVALID",
	LTID_NULL:      "NULL",
	LTID_BOOLEAN:   "BOOLEAN",
	LTID_TINYINT:   "TINYINT",
	LTID_SMALLINT:  "SMALLINT",
	LTID_INTEGER:   "INTEGER",
	LTID_BIGINT:    "BIGINT",
	LTID_DECIMAL:   "DECIMAL",
	LTID_FLOAT:     "FLOAT",
	LTID_DOUBLE:    "DOUBLE",
	LTID_VARCHAR:   "VARCHAR",
	LTID_UTINYINT:  "UTINYINT",
	LTID_USMALLINT: "USMALLINT",
	LTID_UINTEGER:  "UINTEGER",
	LTID_UBIGINT:   "UBIGINT",
}

func (id LTypeId) String() string {
	if s, has := lTypeIdToStr[id]; has {
		return s
	}
	return fmt.Sprintf("LTYPE(%d)", int(id))
}

var sqlNameToLTypeId = map[string]LTypeId{
	"bool":     LTID_BOOLEAN,
	"boolean":  LTID_BOOLEAN,
	"int1":     LTID_TINYINT,
	"tinyint":  LTID_TINYINT,
	"int2":     LTID_SMALLINT,
	"smallint": LTID_SMALLINT,
	"int":      LTID_INTEGER,
	"int4":     LTID_INTEGER,
	"integer":  LTID_INTEGER,
	"int8":     LTID_BIGINT,
	"bigint":   LTID_BIGINT,
	"decimal":  LTID_DECIMAL,
	"numeric":  LTID_DECIMAL,
	"float4":   LTID_FLOAT,
	"real":     LTID_FLOAT,
	"float":    LTID_DOUBLE,
	"float8":   LTID_DOUBLE,
	"double":   LTID_DOUBLE,
	"text":     LTID_VARCHAR,
	"varchar":  LTID_VARCHAR,
	"string":   LTID_VARCHAR,
	"ubigint":  LTID_UBIGINT,
	"uinteger": LTID_UINTEGER,
}

// LTypeIdFromName resolves a SQL type name such as "int4" or "varchar".
func LTypeIdFromName(name string) (LTypeId, bool) {
	id, has := sqlNameToLTypeId[name]
	return id, has
}
