package cache

import (
	"reflect"
	"strconv"
)

// MaxShape is the largest argument count whose resolution is memoized.
const MaxShape = 4

// ShapeKey identifies a resolution by target type and the dynamic types of
// the arguments. A nil argument is recorded as a nil type.
type ShapeKey struct {
	Type  reflect.Type
	Arity uint8
	Args  [MaxShape]reflect.Type
}

// Shape builds the memo key for (t, args). It reports false when args is too
// long to be memoized.
func Shape(t reflect.Type, args []any) (ShapeKey, bool) {
	var key ShapeKey
	if len(args) > MaxShape {
		return key, false
	}

	// Layout:
	// Type:  target type identity
	// Arity: number of arguments
	// Args:  dynamic type per position, nil for absent values
	key.Type = t
	key.Arity = uint8(len(args))
	for i, a := range args {
		key.Args[i] = reflect.TypeOf(a)
	}
	return key, true // No heap allocation - returns by value
}

// typeKey names a type for the build section. Type descriptors are unique per
// process, so their address identifies the type.
func typeKey(t reflect.Type) string {
	return strconv.FormatUint(uint64(reflect.ValueOf(t).Pointer()), 16)
}
