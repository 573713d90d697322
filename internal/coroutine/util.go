package coroutine

import (
	"fmt"
	"reflect"
	"sync/atomic"
)

func (d *dispatcherImpl) bumpProgress() { atomic.AddInt64(&d.progress, 1) }

// assignReflect copies v into *valuePtr. Unlike converter.assign, v may be
// untyped nil (a closed/empty receive) and valuePtr of any settable
// pointer kind.
func assignReflect(valuePtr interface{}, v interface{}) error {
	rv := reflect.ValueOf(valuePtr)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("destination %T is not a non-nil pointer", valuePtr)
	}
	dv := rv.Elem()
	if v == nil {
		dv.Set(reflect.Zero(dv.Type()))
		return nil
	}
	sv := reflect.ValueOf(v)
	if sv.Type().AssignableTo(dv.Type()) {
		dv.Set(sv)
		return nil
	}
	if sv.Type().ConvertibleTo(dv.Type()) {
		dv.Set(sv.Convert(dv.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign value of type %T to destination of type %s", v, dv.Type())
}
