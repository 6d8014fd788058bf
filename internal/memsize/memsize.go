// Package memsize estimates how much memory a value occupies and formats the
// estimate for humans. Numbers count eight bytes, booleans four and strings
// two bytes per UTF-16 unit; containers are the sum of their elements.
package memsize

import (
	"fmt"
	"reflect"
	"strconv"
	"unicode/utf16"

	"github.com/conneroisu/assetpipe/internal/errors"
)

const (
	numberSize = 8
	boolSize   = 4
	charSize   = 2

	opOf     = "memsize.Of"
	opFormat = "memsize.Format"
)

// Unit selects the divisor used by Format.
type Unit string

const (
	Bytes     Unit = "bytes"
	Kilobytes Unit = "kilobytes"
	Megabytes Unit = "megabytes"
	Gigabytes Unit = "gigabytes"
)

var units = map[Unit]struct {
	divisor float64
	suffix  string
}{
	Bytes:     {1, " b"},
	Kilobytes: {1024, " kb"},
	Megabytes: {1024 * 1024, " mb"},
	Gigabytes: {1024 * 1024 * 1024, " gb"},
}

var stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()

// Of returns the estimated size of v in bytes. A nil v is an error; nil
// values nested inside containers count as zero.
func Of(v any) (int64, error) {
	if v == nil {
		return 0, errors.NewValidationError(opOf, errors.ErrCodeInvalidArgument, "value to be sized is nil")
	}
	rv := reflect.ValueOf(v)
	if isNil(rv) {
		return 0, errors.NewValidationError(opOf, errors.ErrCodeInvalidArgument, "value to be sized is nil")
	}

	s := sizer{seen: make(map[uintptr]bool)}
	return s.size(rv), nil
}

type sizer struct {
	seen map[uintptr]bool
}

func (s *sizer) size(v reflect.Value) int64 {
	if !v.IsValid() || isNil(v) {
		return 0
	}

	switch v.Kind() {
	case reflect.Bool:
		return boolSize
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return numberSize
	case reflect.Complex64, reflect.Complex128:
		return 2 * numberSize
	case reflect.String:
		return stringSize(v.String())
	case reflect.Pointer:
		ptr := v.Pointer()
		if s.seen[ptr] {
			return 0
		}
		s.seen[ptr] = true
		return s.size(v.Elem())
	case reflect.Interface:
		return s.size(v.Elem())
	case reflect.Slice, reflect.Array:
		var total int64
		for i := 0; i < v.Len(); i++ {
			total += s.size(v.Index(i))
		}
		return total
	case reflect.Map:
		var total int64
		iter := v.MapRange()
		for iter.Next() {
			total += s.size(iter.Value())
		}
		return total
	case reflect.Struct:
		if v.Type().Implements(stringerType) && v.CanInterface() {
			return stringSize(v.Interface().(fmt.Stringer).String())
		}
		var total int64
		for i := 0; i < v.NumField(); i++ {
			total += s.size(v.Field(i))
		}
		return total
	default:
		if !v.CanInterface() {
			return 0
		}
		return stringSize(fmt.Sprint(v.Interface()))
	}
}

func stringSize(s string) int64 {
	return int64(len(utf16.Encode([]rune(s)))) * charSize
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// Options controls Format. The zero value prints whole bytes as a bare number.
type Options struct {
	Unit      Unit
	AsString  bool
	Precision int
}

// Format renders bytes in the requested unit with Precision decimals. With
// AsString the unit suffix (" b", " kb", " mb" or " gb") is appended.
func Format(bytes int64, opts Options) (string, error) {
	unit := opts.Unit
	if unit == "" {
		unit = Bytes
	}
	u, ok := units[unit]
	if !ok {
		return "", errors.NewValidationError(opFormat, errors.ErrCodeInvalidArgument,
			fmt.Sprintf("unknown unit %q", opts.Unit))
	}
	if opts.Precision < 0 || opts.Precision > 100 {
		return "", errors.NewValidationError(opFormat, errors.ErrCodeInvalidArgument,
			fmt.Sprintf("precision %d out of range 0..100", opts.Precision))
	}

	out := strconv.FormatFloat(float64(bytes)/u.divisor, 'f', opts.Precision, 64)
	if opts.AsString {
		out += u.suffix
	}
	return out, nil
}

// Describe sizes v and formats the result in one step.
func Describe(v any, opts Options) (string, error) {
	n, err := Of(v)
	if err != nil {
		return "", err
	}
	return Format(n, opts)
}
