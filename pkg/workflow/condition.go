package workflow

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/raids-lab/approvalflow/dao/model"
)

// number is the result of coercing a form value to a numeric value.
// A value that does not coerce is NaN, and NaN compares false against everything.
type number struct {
	d   decimal.Decimal
	nan bool
}

var nan = number{nan: true}

// Evaluate reports whether cond holds for the given form data.
//
// Ordering operators coerce both sides to numbers. Equality operators use loose
// equality: a missing field and null are equal to each other and nothing else,
// a number compared with a string or bool compares numerically, and composite
// values are compared through their comma-joined string form.
func Evaluate(cond *model.StepCondition, formData map[string]any) (bool, error) {
	if cond == nil {
		return true, nil
	}
	if err := validateCondition(cond); err != nil {
		return false, err
	}

	v, present := formData[cond.Field]
	switch cond.Operator {
	case model.OperatorGreaterThan:
		return compare(v, present, cond.Value) > 0, nil
	case model.OperatorLessThan:
		return compare(v, present, cond.Value) < 0, nil
	case model.OperatorEqual:
		return looseEqual(v, present, cond.Value, true), nil
	case model.OperatorNotEqual:
		return !looseEqual(v, present, cond.Value, true), nil
	}
	// unreachable, validateCondition rejects unknown operators
	return false, fmt.Errorf("%w: operator %q", ErrInvalidCondition, cond.Operator)
}

func validateCondition(cond *model.StepCondition) error {
	if strings.TrimSpace(cond.Field) == "" {
		return fmt.Errorf("%w: empty field", ErrInvalidCondition)
	}
	if !cond.Operator.IsValid() {
		return fmt.Errorf("%w: unsupported operator %q", ErrInvalidCondition, cond.Operator)
	}
	return nil
}

// compare returns 1 if a > b, -1 if a < b and 0 when equal or not comparable.
func compare(a any, present bool, b any) int {
	x := toNumber(a, present)
	y := toNumber(b, true)
	if x.nan || y.nan {
		return 0
	}
	return x.d.Cmp(y.d)
}

// toNumber follows Number() coercion: null, "" and false are 0, true is 1,
// numeric strings parse after trimming, a missing value is NaN.
func toNumber(v any, present bool) number {
	if !present {
		return nan
	}
	switch n := v.(type) {
	case nil:
		return number{d: decimal.Zero}
	case bool:
		if n {
			return number{d: decimal.NewFromInt(1)}
		}
		return number{d: decimal.Zero}
	case float64:
		return fromFloat(n)
	case float32:
		return fromFloat(float64(n))
	case int:
		return number{d: decimal.NewFromInt(int64(n))}
	case int8:
		return number{d: decimal.NewFromInt(int64(n))}
	case int16:
		return number{d: decimal.NewFromInt(int64(n))}
	case int32:
		return number{d: decimal.NewFromInt32(n)}
	case int64:
		return number{d: decimal.NewFromInt(n)}
	case uint:
		return number{d: decimal.NewFromUint64(uint64(n))}
	case uint8:
		return number{d: decimal.NewFromUint64(uint64(n))}
	case uint16:
		return number{d: decimal.NewFromUint64(uint64(n))}
	case uint32:
		return number{d: decimal.NewFromUint64(uint64(n))}
	case uint64:
		return number{d: decimal.NewFromUint64(n)}
	case decimal.Decimal:
		return number{d: n}
	case json.Number:
		return fromString(n.String())
	case string:
		return fromString(n)
	case []any:
		return fromString(primitiveString(n))
	}
	return nan
}

func fromFloat(f float64) number {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nan
	}
	return number{d: decimal.NewFromFloat(f)}
}

func fromString(s string) number {
	s = strings.TrimSpace(s)
	if s == "" {
		return number{d: decimal.Zero}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nan
	}
	return number{d: d}
}

// looseEqual compares a form value against a condition value.
// unwrap is set on the first call and cleared once composites are flattened.
func looseEqual(a any, present bool, b any, unwrap bool) bool {
	aNullish := !present || a == nil
	bNullish := b == nil
	if aNullish || bNullish {
		return aNullish && bNullish
	}

	if unwrap {
		if isComposite(a) {
			return looseEqual(primitiveString(a), true, b, false)
		}
		if isComposite(b) {
			return looseEqual(a, true, primitiveString(b), false)
		}
	}

	as, aIsString := a.(string)
	bs, bIsString := b.(string)
	if aIsString && bIsString {
		return as == bs
	}
	ab, aIsBool := a.(bool)
	bb, bIsBool := b.(bool)
	if aIsBool && bIsBool {
		return ab == bb
	}

	if isScalar(a) && isScalar(b) {
		x := toNumber(a, true)
		y := toNumber(b, true)
		if x.nan || y.nan {
			return false
		}
		return x.d.Equal(y.d)
	}
	return primitiveString(a) == primitiveString(b)
}

func isScalar(v any) bool {
	switch v.(type) {
	case bool, string, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, decimal.Decimal, json.Number:
		return true
	}
	return false
}

func isComposite(v any) bool {
	switch v.(type) {
	case []any, []string, map[string]any:
		return true
	}
	return false
}

// primitiveString renders a value the way string concatenation would:
// arrays join their elements with commas, objects collapse to a fixed tag.
func primitiveString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = primitiveString(e)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(t, ",")
	case map[string]any:
		return "[object Object]"
	}
	n := toNumber(v, true)
	if n.nan {
		return fmt.Sprint(v)
	}
	return n.d.String()
}
