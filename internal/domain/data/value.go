package data

import (
	"strings"
	"time"
)

// IsNull reports whether a cell holds no value
func IsNull(v interface{}) bool {
	return v == nil
}

// ToFloat converts numeric cell values to float64
func ToFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case float64:
		return val, true
	case float32:
		return float64(val), true
	}
	return 0, false
}

// IsNumeric reports whether v is one of the numeric cell kinds
func IsNumeric(v interface{}) bool {
	_, ok := ToFloat(v)
	return ok
}

// Equal compares two cell values. Numbers compare numerically regardless of
// width, times compare by instant, everything else by kind and value.
// A null operand is never equal to anything.
func Equal(a, b interface{}) bool {
	if a == nil || b == nil {
		return false
	}
	if fa, ok := ToFloat(a); ok {
		fb, ok := ToFloat(b)
		return ok && fa == fb
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return a == b
}

// Compare orders two non-null values of a compatible kind.
// The second result is false when the values cannot be ordered.
func Compare(a, b interface{}) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	if fa, ok := ToFloat(a); ok {
		fb, ok := ToFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	switch va := a.(type) {
	case string:
		vb, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(va, vb), true
	case time.Time:
		vb, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return va.Compare(vb), true
	case bool:
		vb, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if va == vb {
			return 0, true
		}
		if !va {
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

// IsTrueFlag reports whether v is the boolean true or the token 'TRUE'
func IsTrueFlag(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "TRUE"
	}
	return false
}

// IsFalseFlag reports whether v is the boolean false or the token 'FALSE'
func IsFalseFlag(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return !val
	case string:
		return val == "FALSE"
	}
	return false
}
