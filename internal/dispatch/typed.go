package dispatch

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-gateway-errors/internal/result"
)

// Typed adapts a handler that takes a concrete error type. The dispatched
// error is passed as-is when it is an E; otherwise the first E in its wrap
// chain is used. An error that holds no E makes the handler fail, which the
// Dispatcher reports as a handler failure.
func Typed[E error](fn func(E) *result.Result) HandlerFunc {
	return func(err error) *result.Result {
		if e, ok := err.(E); ok {
			return fn(e)
		}
		var target E
		if errors.As(err, &target) {
			return fn(target)
		}
		panic(fmt.Sprintf("dispatch: handler expects %T, got %T", target, err))
	}
}
