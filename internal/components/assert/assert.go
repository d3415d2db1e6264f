package assert

import (
	"fmt"
	"reflect"
)

func describe(what []string) string {
	if len(what) == 0 {
		return "value"
	}
	return what[0]
}

// NotNil panics when value is nil, including typed nil pointers, funcs and
// interfaces wrapping them.
func NotNil(value any, what ...string) {
	if value == nil {
		panic(fmt.Sprintf("expected %s to be not nil", describe(what)))
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Interface, reflect.Chan, reflect.Slice:
		if v.IsNil() {
			panic(fmt.Sprintf("expected %s to be not nil", describe(what)))
		}
	}
}

func NotEmptyStr(str string, what ...string) {
	if str == "" {
		panic(fmt.Sprintf("expected %s to be non-empty", describe(what)))
	}
}
