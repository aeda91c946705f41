package common

import "reflect"

// IsFixedKind reports whether k is a fixed-size primitive kind the parcel
// format can carry.
func IsFixedKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// SlotSize returns the number of bytes kind k occupies in a parcel. Narrow
// kinds are widened to one 4-byte slot; 64-bit kinds take two.
func SlotSize(k reflect.Kind) int {
	switch k {
	case reflect.Bool,
		reflect.Int8, reflect.Uint8,
		reflect.Int16, reflect.Uint16,
		reflect.Int32, reflect.Uint32, reflect.Float32:
		return 4
	case reflect.Int64, reflect.Uint64, reflect.Float64:
		return 8
	default:
		return -1
	}
}

// Pad4 rounds n up to the next 4-byte boundary.
func Pad4(n int32) int32 {
	return (n + 3) &^ 3
}
