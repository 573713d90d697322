package internal

import (
	"reflect"
	"runtime"
	"strings"
)

// runtimeFuncName returns the unqualified name of fn, e.g. "MyWorkflow" for
// a func declared as `func MyWorkflow(ctx Context) error` in package
// myapp, used as the default workflow/activity type name when no explicit
// Name is supplied to RegisterXWithOptions.
func runtimeFuncName(fn interface{}) string {
	full := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
	if i := strings.LastIndex(full, "."); i >= 0 {
		full = full[i+1:]
	}
	return strings.TrimSuffix(full, "-fm")
}
