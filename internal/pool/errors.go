package pool

import "fmt"

type panicError struct {
	v any
}

func (e panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.v)
}
