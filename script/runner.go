// Package script runs tengo scripts against level entities. Scripts edit
// through undo commands, so a script run is one undoable step.
package script

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/worldedit/common"
	"github.com/milk9111/worldedit/logger"
	"github.com/milk9111/worldedit/undo"
	"github.com/milk9111/worldedit/world"
	"github.com/sirupsen/logrus"
)

// ErrAborted is returned by Run when the script calls abort.
var ErrAborted = errors.New("script: aborted")

// Runner compiles and runs scripts. Every edit is pushed to the history
// inside one macro per run.
type Runner struct {
	history *undo.History
	modules *tengo.ModuleMap
}

func NewRunner(h *undo.History) *Runner {
	return &Runner{
		history: h,
		modules: stdlib.GetModuleMap(stdlib.AllModuleNames()...),
	}
}

// Run executes src with `entity` bound to e. A nil e binds undefined, which
// is useful for scripts that only use `at`.
func (r *Runner) Run(ctx context.Context, name string, src []byte, e world.Entity) error {
	s := tengo.NewScript(src)
	s.SetImports(r.modules)

	var self tengo.Object = tengo.UndefinedValue
	if e != nil {
		self = r.entityObject(e)
	}
	if err := s.Add("entity", self); err != nil {
		return err
	}
	if err := s.Add("at", &tengo.UserFunction{Name: "at", Value: r.at}); err != nil {
		return err
	}
	if err := s.Add("abort", &tengo.UserFunction{Name: "abort", Value: func(args ...tengo.Object) (tengo.Object, error) {
		msg := "aborted"
		if len(args) > 0 {
			msg = objectAsString(args[0])
		}
		return nil, fmt.Errorf("%w: %s", ErrAborted, msg)
	}}); err != nil {
		return err
	}
	if err := s.Add("log", &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		logger.Log.WithFields(logrus.Fields{"script": name}).Info(strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	}}); err != nil {
		return err
	}

	compiled, err := s.Compile()
	if err != nil {
		return fmt.Errorf("script %s: %w", name, err)
	}

	r.history.Checkpoint()
	r.history.BeginMacro("script " + name)
	err = compiled.RunContext(ctx)
	r.history.EndMacro()
	if err != nil {
		return fmt.Errorf("script %s: %w", name, err)
	}
	return nil
}

func (r *Runner) at(args ...tengo.Object) (tengo.Object, error) {
	if len(args) != 2 {
		return nil, tengo.ErrWrongNumArguments
	}
	x, ok1 := tengo.ToFloat64(args[0])
	y, ok2 := tengo.ToFloat64(args[1])
	if !ok1 || !ok2 {
		return nil, tengo.ErrInvalidArgumentType{Name: "at", Expected: "number", Found: args[0].TypeName()}
	}
	e := r.history.World().EntityAt(x, y, nil)
	if e == nil {
		return tengo.UndefinedValue, nil
	}
	return r.entityObject(e), nil
}

func (r *Runner) entityObject(e world.Entity) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["kind"] = &tengo.UserFunction{Name: "kind", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.String{Value: e.Kind().String()}, nil
	}}

	values["order"] = &tengo.UserFunction{Name: "order", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Int{Value: int64(e.Order())}, nil
	}}

	values["properties"] = &tengo.UserFunction{Name: "properties", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return anyToObject(world.Properties(e)), nil
	}}

	values["get"] = &tengo.UserFunction{Name: "get", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		v, err := world.GetProperty(e, objectAsString(args[0]))
		if err != nil {
			return errorObject(err), nil
		}
		return anyToObject(v), nil
	}}

	values["set"] = &tengo.UserFunction{Name: "set", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		c, err := undo.NewSetProperty(e, objectAsString(args[0]), objectToAny(args[1]))
		if err != nil {
			return errorObject(err), nil
		}
		r.history.Push(c)
		return tengo.TrueValue, nil
	}}

	values["move"] = &tengo.UserFunction{Name: "move", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		dx, ok1 := tengo.ToFloat64(args[0])
		dy, ok2 := tengo.ToFloat64(args[1])
		if !ok1 || !ok2 {
			return nil, tengo.ErrInvalidArgumentType{Name: "move", Expected: "number", Found: args[0].TypeName()}
		}
		r.history.Push(undo.NewMoveEntities([]world.Entity{e}, dx, dy))
		return tengo.TrueValue, nil
	}}

	values["resize"] = &tengo.UserFunction{Name: "resize", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		w, ok1 := tengo.ToInt(args[0])
		h, ok2 := tengo.ToInt(args[1])
		if !ok1 || !ok2 || w < 0 || h < 0 {
			return tengo.FalseValue, nil
		}
		if e.Kind() == world.KindTileLayer {
			return errorObject(world.ErrFixedProperty), nil
		}
		r.history.Push(undo.NewReshapeEntity(e, common.NewRect(e.X(), e.Y(), float64(w), float64(h))))
		return tengo.TrueValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func errorObject(err error) tengo.Object {
	return &tengo.Error{Value: &tengo.String{Value: err.Error()}}
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}

func objectToAny(obj tengo.Object) any {
	if obj == nil {
		return nil
	}

	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	case *tengo.Int:
		return int(v.Value)
	case *tengo.Float:
		return v.Value
	case *tengo.Bool:
		return !v.IsFalsy()
	case *tengo.Array:
		out := make([]any, 0, len(v.Value))
		for _, item := range v.Value {
			out = append(out, objectToAny(item))
		}
		return out
	case *tengo.ImmutableArray:
		out := make([]any, 0, len(v.Value))
		for _, item := range v.Value {
			out = append(out, objectToAny(item))
		}
		return out
	case *tengo.Undefined:
		return nil
	default:
		return v.String()
	}
}

func anyToObject(v any) tengo.Object {
	switch t := v.(type) {
	case []string:
		out := make([]tengo.Object, 0, len(t))
		for _, s := range t {
			out = append(out, &tengo.String{Value: s})
		}
		return &tengo.Array{Value: out}
	case int:
		return &tengo.Int{Value: int64(t)}
	case float64:
		return &tengo.Float{Value: t}
	case string:
		return &tengo.String{Value: t}
	}
	obj, err := tengo.FromInterface(v)
	if err != nil {
		return tengo.UndefinedValue
	}
	return obj
}
