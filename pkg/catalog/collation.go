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

package catalog

import (
	"slices"
	"strings"
)

const (
	CollationBinary   = "binary"
	CollationNocase   = "nocase"
	CollationNoaccent = "noaccent"

	// CollateFunctionPrefix names the key function of a collation.
	CollateFunctionPrefix = "collate_"
)

func CollateFunctionName(collation string) string {
	return CollateFunctionPrefix + strings.ToLower(collation)
}

// CollationInfo describes a collation. Function maps a string to a key
// whose binary order is the collation order. Binary has no function.
type CollationInfo struct {
	Name     string
	Function string
	// may be applied on top of another collation
	Combinable bool
	// binary equality agrees with the collation
	NotRequiredForEquality bool
}

// NewCollationInfo applies the exception list: collations named there
// are applied even for equality.
func NewCollationInfo(
	name string,
	function string,
	combinable bool,
	notRequiredForEquality bool,
	equalityExceptions []string,
) *CollationInfo {
	name = strings.ToLower(name)
	if slices.ContainsFunc(equalityExceptions, func(s string) bool {
		return strings.EqualFold(s, name)
	}) {
		notRequiredForEquality = false
	}
	return &CollationInfo{
		Name:                   name,
		Function:               function,
		Combinable:             combinable,
		NotRequiredForEquality: notRequiredForEquality,
	}
}

// RequiredFor reports whether comparing with op needs the collation key.
func (info *CollationInfo) RequiredFor(equality bool) bool {
	if info.Function == "" {
		return false
	}
	return !equality || !info.NotRequiredForEquality
}
