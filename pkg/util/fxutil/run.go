// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package fxutil runs command implementations inside an fx application so
// their dependencies are injected.
package fxutil

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/dig"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// OneShot runs the given function in an fx.App using the supplied options.
// The function's arguments are supplied by fx and can be any provided type.
// The function must return nothing or an error.
//
// The resulting app starts all components, then invokes the function, then
// immediately shuts down. This is typically used for command-line tools.
func OneShot(oneShotFunc interface{}, opts ...fx.Option) error {
	if fxAppTestOverride != nil {
		return fxAppTestOverride(oneShotFunc, opts)
	}

	delayed := newDelayedFxInvocation(oneShotFunc)
	opts = append(opts,
		delayed.option(),
		fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
	)
	app := fx.New(opts...)

	// start the app
	startCtx, cancel := context.WithTimeout(context.Background(), app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return UnwrapIfErrArgumentsFailed(err)
	}

	// call the original oneShotFunc with the args captured during app startup
	err := delayed.call()

	// stop the app
	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	return errors.Join(err, app.Stop(stopCtx))
}

// UnwrapIfErrArgumentsFailed strips the fx wrapping added when a constructor
// fails, so the user sees the constructor error itself.
func UnwrapIfErrArgumentsFailed(err error) error {
	if err == nil {
		return nil
	}
	return dig.RootCause(err)
}

// delayedFxInvocation captures the arguments of a function during fx
// startup and calls it later.
type delayedFxInvocation struct {
	fn    interface{}
	ftype reflect.Type
	args  []reflect.Value
}

func newDelayedFxInvocation(fn interface{}) *delayedFxInvocation {
	ftype := reflect.TypeOf(fn)
	if ftype == nil || ftype.Kind() != reflect.Func {
		panic("delayedFxInvocation requires a function as its first argument")
	}

	// check return type: nothing, or an error
	if ftype.NumOut() > 1 || (ftype.NumOut() == 1 && ftype.Out(0) != reflect.TypeOf((*error)(nil)).Elem()) {
		panic("delayedFxInvocation function must return nothing or an error")
	}

	return &delayedFxInvocation{fn: fn, ftype: ftype}
}

// option returns an fx.Option that will capture the function's arguments.
func (i *delayedFxInvocation) option() fx.Option {
	// build a function with the same signature as i.fn that will capture
	// the args and do nothing.
	in := make([]reflect.Type, i.ftype.NumIn())
	for n := range in {
		in[n] = i.ftype.In(n)
	}
	captureArgs := reflect.MakeFunc(
		reflect.FuncOf(in, []reflect.Type{}, i.ftype.IsVariadic()),
		func(args []reflect.Value) []reflect.Value {
			i.args = args
			return []reflect.Value{}
		})

	return fx.Invoke(captureArgs.Interface())
}

// call calls the underlying function with the captured arguments.
func (i *delayedFxInvocation) call() error {
	if i.args == nil {
		return fmt.Errorf("%v was not invoked by fx", i.ftype)
	}
	res := reflect.ValueOf(i.fn).Call(i.args)
	if len(res) == 0 {
		return nil
	}
	if err, ok := res[0].Interface().(error); ok {
		return err
	}
	return nil
}
