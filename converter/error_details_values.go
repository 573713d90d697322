package converter

import (
	"fmt"
	"reflect"
)

// Values is the common interface satisfied by both ErrorDetailsValues (raw,
// not-yet-encoded Go values attached to a locally constructed error) and
// *EncodedValues (payloads decoded lazily on Get).
type Values interface {
	HasValues() bool
	Get(valuePtrs ...interface{}) error
}

// ErrorDetailsValues wraps already-typed Go values passed to one of the
// temporal.NewXxxError constructors, before they are encoded to payloads for
// transmission.
type ErrorDetailsValues []interface{}

func (r ErrorDetailsValues) HasValues() bool { return len(r) > 0 }

func (r ErrorDetailsValues) Get(valuePtrs ...interface{}) error {
	if len(valuePtrs) > len(r) {
		return fmt.Errorf("too many arguments, expected at most %d", len(r))
	}
	for i, v := range valuePtrs {
		if err := assign(v, r[i]); err != nil {
			return err
		}
	}
	return nil
}

func assign(dst, src interface{}) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("destination %T is not a non-nil pointer", dst)
	}
	dv := rv.Elem()
	sv := reflect.ValueOf(src)
	if !sv.IsValid() {
		return nil
	}
	if sv.Type().AssignableTo(dv.Type()) {
		dv.Set(sv)
		return nil
	}
	return fmt.Errorf("cannot assign value of type %T to destination of type %s", src, dv.Type())
}
