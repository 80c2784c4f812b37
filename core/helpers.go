package orchestration

import (
	"context"
	"fmt"
	"reflect"
)

func withContextCancelHook(ctx context.Context, onContextDone func()) chan struct{} {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			onContextDone()
		case <-done:
		}
	}()
	return done
}

// stepError names the session step that failed.
type stepError struct {
	step string
	err  error
}

func (e *stepError) Error() string { return fmt.Sprintf("%s failed: %v", e.step, e.err) }
func (e *stepError) Unwrap() error { return e.err }

type stepRun func(context.Context) error

// panicSafeNamedStep runs a collaborator call and turns both its error and a
// panic into a stepError.
func panicSafeNamedStep(name string, run func(context.Context) error) stepRun {
	return func(ctx context.Context) (err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err = &stepError{step: name, err: fmt.Errorf("panicked: %v", recovered)}
			}
		}()

		if err = run(ctx); err != nil {
			return &stepError{step: name, err: err}
		}

		return nil
	}
}

// isNilClient detects nil and typed-nil interface values so options never
// store unusable interface wrappers as configured clients.
func isNilClient(client any) bool {
	if client == nil {
		return true
	}

	v := reflect.ValueOf(client)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
