package health

import (
	"fmt"
	"runtime"
)

func numGoroutine() int {
	return runtime.NumGoroutine()
}

type tooManyGoroutinesError struct {
	count     int
	threshold int
}

func (e *tooManyGoroutinesError) Error() string {
	return fmt.Sprintf("too many goroutines: %d > %d", e.count, e.threshold)
}
