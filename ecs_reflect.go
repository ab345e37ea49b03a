package gekko

import (
	"reflect"
)

// Component tables are typed slices stored as any. These helpers reach into
// them without knowing the element type at compile time.

func reflectSliceMake(elem reflect.Type) any {
	return reflect.MakeSlice(reflect.SliceOf(elem), 0, 1).Interface()
}

func reflectSliceGet(slice any, idx int) reflect.Value {
	return reflect.ValueOf(slice).Index(idx)
}

func reflectSliceSet(slice any, idx int, val reflect.Value) {
	reflect.ValueOf(slice).Index(idx).Set(val)
}

// reflectSliceZero resets the element at idx to the zero value of its type.
func reflectSliceZero(slice any, idx int) {
	elem := reflect.ValueOf(slice).Index(idx)
	elem.Set(reflect.Zero(elem.Type()))
}

func reflectSliceAppend(slice any, val reflect.Value) any {
	return reflect.Append(reflect.ValueOf(slice), val).Interface()
}

func reflectSliceLen(slice any) int {
	return reflect.ValueOf(slice).Len()
}
