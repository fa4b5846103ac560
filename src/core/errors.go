package core

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedChunk indicates chunk data the loop cannot apply
	ErrMalformedChunk = errors.New("malformed chunk")

	ErrNothingToExecute = fmt.Errorf("%w: executing marker without a code block", ErrMalformedChunk)
	ErrNotExecuting     = fmt.Errorf("%w: execution update outside of an execution", ErrMalformedChunk)
)
