package types_test

import (
	"errors"
	"fmt"

	"github.com/zero-day-ai/forensiq/internal/types"
)

// Example demonstrates wrapping errors to preserve context
func Example_wrappedError() {
	originalErr := errors.New("file not found")
	err := types.WrapError(types.CONFIG_NOT_FOUND, "configuration missing", originalErr)
	fmt.Println(err.Error())
	// Output: [CONFIG_NOT_FOUND] configuration missing: file not found
}

// Example demonstrates branching on a tagged outcome
func Example_outcome() {
	o := types.Failed[string](&types.Failure{Kind: types.FailureMalformed, Err: errors.New("missing field safe")})
	if _, ok := o.Value(); !ok {
		fmt.Println(o.Failure().Kind)
	}
	// Output: malformed
}
