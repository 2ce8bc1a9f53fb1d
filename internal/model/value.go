package model

import (
	"cmp"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// FormatValue returns the display form of a cell or header value.
// nil renders as an empty string and time.Time as RFC 3339; everything else
// goes through fmt.Sprint. Strings are returned unchanged.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// DisplayWidth is the width of s for fixed-width alignment: the rune count
// of its NFC form, so composed and decomposed spellings measure the same.
func DisplayWidth(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(s))
}

func valueWidth(v any) int {
	return DisplayWidth(FormatValue(v))
}

// value kinds in ascending sort order.
const (
	rankNil = iota
	rankBool
	rankNumber
	rankString
	rankTime
	rankOther
)

func rankOf(v any) int {
	if v == nil {
		return rankNil
	}
	switch v.(type) {
	case bool:
		return rankBool
	case string:
		return rankString
	case time.Time:
		return rankTime
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return rankNumber
	}
	return rankOther
}

// Compare orders two cell values naturally and returns -1, 0 or +1.
//
// Numbers compare numerically regardless of their Go type, strings
// lexically, booleans false before true and times chronologically. Values
// of different kinds order as nil < bool < number < string < time < other;
// two values of an unrecognized kind compare by their FormatValue text.
func Compare(a, b any) int {
	ra, rb := rankOf(a), rankOf(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}

	switch ra {
	case rankNil:
		return 0
	case rankBool:
		return compareBool(a.(bool), b.(bool))
	case rankNumber:
		return compareNumber(reflect.ValueOf(a), reflect.ValueOf(b))
	case rankString:
		return strings.Compare(a.(string), b.(string))
	case rankTime:
		return a.(time.Time).Compare(b.(time.Time))
	default:
		return strings.Compare(FormatValue(a), FormatValue(b))
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// compareNumber compares without routing integers through float64, which
// would lose precision above 2^53.
func compareNumber(a, b reflect.Value) int {
	af, aFloat := floatOf(a)
	bf, bFloat := floatOf(b)
	if aFloat || bFloat {
		return cmp.Compare(af, bf)
	}

	aNeg, bNeg := a.CanInt() && a.Int() < 0, b.CanInt() && b.Int() < 0
	switch {
	case aNeg && bNeg:
		return cmp.Compare(a.Int(), b.Int())
	case aNeg:
		return -1
	case bNeg:
		return 1
	}
	return cmp.Compare(unsignedOf(a), unsignedOf(b))
}

func floatOf(v reflect.Value) (float64, bool) {
	switch {
	case v.CanFloat():
		return v.Float(), true
	case v.CanInt():
		return float64(v.Int()), false
	default:
		return float64(v.Uint()), false
	}
}

// unsignedOf must only be called for non-negative integers.
func unsignedOf(v reflect.Value) uint64 {
	if v.CanInt() {
		return uint64(v.Int())
	}
	return v.Uint()
}
