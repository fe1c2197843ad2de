// internal/driver/cdp/executor.go
// Package cdp adapts a Chrome DevTools Protocol tab, driven through chromedp,
// to the driver.Session interface. Elements are held as remote object ids and
// all DOM work is done by calling functions on those objects.
package cdp

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// Executor issues protocol commands against one tab.
type Executor interface {
	// Evaluate evaluates expr in the top-level document.
	Evaluate(ctx context.Context, expr string) (*runtime.RemoteObject, error)
	// CallFunctionOn calls fn with this bound to the remote object.
	CallFunctionOn(ctx context.Context, this runtime.RemoteObjectID, fn string, byValue bool, args ...*runtime.CallArgument) (*runtime.RemoteObject, error)
	// Run runs chromedp actions in the tab.
	Run(ctx context.Context, actions ...chromedp.Action) error
}

// ScriptError is a JavaScript exception thrown by an evaluated function.
type ScriptError struct {
	Text        string
	Description string
}

func (e *ScriptError) Error() string {
	if e.Description != "" {
		return "script error: " + e.Description
	}
	return "script error: " + e.Text
}

func scriptError(exc *runtime.ExceptionDetails) error {
	se := &ScriptError{Text: exc.Text}
	if exc.Exception != nil {
		se.Description = exc.Exception.Description
	}
	return se
}

// tabExecutor runs commands on a chromedp tab context. The tab context carries
// the chromedp target; the caller's context only bounds each call.
type tabExecutor struct {
	tab context.Context
}

// NewExecutor returns an Executor for a context created by chromedp.NewContext.
func NewExecutor(tab context.Context) Executor {
	return &tabExecutor{tab: tab}
}

func (e *tabExecutor) Run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(e.tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (e *tabExecutor) Evaluate(ctx context.Context, expr string) (*runtime.RemoteObject, error) {
	var res *runtime.RemoteObject
	err := e.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, exc, err := runtime.Evaluate(expr).Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return scriptError(exc)
		}
		res = obj
		return nil
	}))
	return res, err
}

func (e *tabExecutor) CallFunctionOn(ctx context.Context, this runtime.RemoteObjectID, fn string, byValue bool, args ...*runtime.CallArgument) (*runtime.RemoteObject, error) {
	if this == "" {
		return nil, fmt.Errorf("call function: no remote object")
	}
	var res *runtime.RemoteObject
	err := e.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, exc, err := runtime.CallFunctionOn(fn).
			WithObjectID(this).
			WithArguments(args).
			WithReturnByValue(byValue).
			WithAwaitPromise(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return scriptError(exc)
		}
		res = obj
		return nil
	}))
	return res, err
}
