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

import (
	"github.com/cockroachdb/errors"
	decimal2 "github.com/govalues/decimal"
)

type Decimal struct {
	decimal2.Decimal
}

func ParseDecimal(s string, scale int) (Decimal, error) {
	d, err := decimal2.ParseExact(s, scale)
	if err != nil {
		return Decimal{}, errors.Wrapf(err, "parse decimal %q", s)
	}
	return Decimal{d}, nil
}

func MustParseDecimal(s string, scale int) Decimal {
	d, err := ParseDecimal(s, scale)
	if err != nil {
		panic(err)
	}
	return d
}

func DecimalFromParts(whole, frac int64, scale int) (Decimal, error) {
	d, err := decimal2.NewFromInt64(whole, frac, scale)
	if err != nil {
		return Decimal{}, errors.Wrapf(err, "decimal from %d.%d", whole, frac)
	}
	return Decimal{d}, nil
}

func (dec Decimal) Equal(o Decimal) bool {
	return dec.Decimal.Cmp(o.Decimal) == 0
}

func (dec Decimal) Less(o Decimal) bool {
	return dec.Decimal.Cmp(o.Decimal) < 0
}

func (dec Decimal) Greater(o Decimal) bool {
	return dec.Decimal.Cmp(o.Decimal) > 0
}

func (dec Decimal) String() string {
	return dec.Decimal.String()
}

func AddDecimal(lhs, rhs Decimal) (Decimal, error) {
	res, err := lhs.Decimal.Add(rhs.Decimal)
	if err != nil {
		return Decimal{}, errors.Wrapf(err, "decimal %s + %s", lhs, rhs)
	}
	return Decimal{res}, nil
}

func SubDecimal(lhs, rhs Decimal) (Decimal, error) {
	res, err := lhs.Decimal.Sub(rhs.Decimal)
	if err != nil {
		return Decimal{}, errors.Wrapf(err, "decimal %s - %s", lhs, rhs)
	}
	return Decimal{res}, nil
}

func MulDecimal(lhs, rhs Decimal) (Decimal, error) {
	res, err := lhs.Decimal.Mul(rhs.Decimal)
	if err != nil {
		return Decimal{}, errors.Wrapf(err, "decimal %s * %s", lhs, rhs)
	}
	return Decimal{res}, nil
}

func NegateDecimal(input Decimal) Decimal {
	return Decimal{input.Decimal.Neg()}
}

func QuoDecimal(lhs, rhs Decimal) (Decimal, error) {
	res, err := lhs.Decimal.Quo(rhs.Decimal)
	if err != nil {
		return Decimal{}, errors.Wrapf(err, "decimal %s / %s", lhs, rhs)
	}
	return Decimal{res}, nil
}

func DecimalFromInt64(value int64, scale int) (Decimal, error) {
	return DecimalFromParts(value, 0, scale)
}

func DecimalFromFloat64(value float64, scale int) (Decimal, error) {
	d, err := decimal2.NewFromFloat64(value)
	if err != nil {
		return Decimal{}, errors.Wrapf(err, "decimal from %v", value)
	}
	return Decimal{d}.Rescale(scale), nil
}

// Rescale rounds or pads dec to exactly scale fractional digits.
func (dec Decimal) Rescale(scale int) Decimal {
	return Decimal{dec.Decimal.Round(scale).Pad(scale)}
}

// ToInt64 rounds dec half to even and fails if it does not fit.
func (dec Decimal) ToInt64() (int64, error) {
	whole, _, ok := dec.Decimal.Round(0).Int64(0)
	if !ok {
		return 0, errors.Newf("decimal %s out of int64 range", dec)
	}
	return whole, nil
}

func (dec Decimal) ToFloat64() float64 {
	f, _ := dec.Decimal.Float64()
	return f
}
