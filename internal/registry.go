package internal

import (
	"fmt"
	"reflect"
	"sync"
)

// RegisterWorkflowOptions configures RegisterWorkflowWithOptions.
type RegisterWorkflowOptions struct {
	Name string
}

// RegisterActivityOptions configures RegisterActivityWithOptions.
type RegisterActivityOptions struct {
	Name                          string
	DisableAlreadyRegisteredCheck bool
}

type workflowDefinition struct {
	name string
	fn   reflect.Value
}

type activityDefinition struct {
	name string
	fn   reflect.Value
}

var (
	registryMu        sync.RWMutex
	workflowsByName   = map[string]*workflowDefinition{}
	activitiesByName  = map[string]*activityDefinition{}
)

// RegisterWorkflow registers fn, a func(Context, ...) (R, error) or
// func(Context, ...) error, under its unqualified Go function name.
func RegisterWorkflow(fn interface{}) {
	name := workflowTypeNameOf(fn)
	RegisterWorkflowWithOptions(fn, RegisterWorkflowOptions{Name: name})
}

// RegisterWorkflowWithOptions registers fn under opts.Name, the
// InitializeWorkflowJob.WorkflowType value that selects it. Signal, query
// and update handlers are registered by the workflow function itself via
// SetQueryHandler/SetUpdateHandler/GetSignalChannel once it runs.
func RegisterWorkflowWithOptions(fn interface{}, opts RegisterWorkflowOptions) {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		panic(fmt.Sprintf("internal: RegisterWorkflow: %T is not a function", fn))
	}
	name := opts.Name
	if name == "" {
		name = workflowTypeNameOf(fn)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := workflowsByName[name]; ok {
		panic(fmt.Sprintf("internal: workflow type %q already registered", name))
	}
	workflowsByName[name] = &workflowDefinition{name: name, fn: rv}
}

// RegisterActivity registers fn under its unqualified Go function name (or
// under every exported method name, if fn is a struct pointer whose
// methods are the activities).
func RegisterActivity(fn interface{}) {
	rv := reflect.ValueOf(fn)
	if rv.Kind() == reflect.Func {
		RegisterActivityWithOptions(fn, RegisterActivityOptions{Name: activityTypeNameOf(fn)})
		return
	}
	t := rv.Type()
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		RegisterActivityWithOptions(rv.Method(i).Interface(), RegisterActivityOptions{Name: m.Name})
	}
}

// RegisterActivityWithOptions registers fn (a func(context.Context, ...)
// (R, error) or func(context.Context, ...) error) under opts.Name.
func RegisterActivityWithOptions(fn interface{}, opts RegisterActivityOptions) {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		panic(fmt.Sprintf("internal: RegisterActivity: %T is not a function", fn))
	}
	name := opts.Name
	if name == "" {
		name = activityTypeNameOf(fn)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := activitiesByName[name]; ok && !opts.DisableAlreadyRegisteredCheck {
		panic(fmt.Sprintf("internal: activity type %q already registered", name))
	}
	activitiesByName[name] = &activityDefinition{name: name, fn: rv}
}

func lookupWorkflow(name string) (*workflowDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := workflowsByName[name]
	return d, ok
}

func lookupActivity(name string) (*activityDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := activitiesByName[name]
	return d, ok
}

func workflowTypeNameOf(fn interface{}) string {
	return runtimeFuncName(fn)
}

func activityTypeNameOf(fn interface{}) string {
	return runtimeFuncName(fn)
}
