package executor

import (
	"context"
	"iter"

	"github.com/elee1766/interpreter/src/core"
	"github.com/elee1766/interpreter/src/llm"
	"github.com/elee1766/interpreter/src/runner"
)

var (
	_ ModelClient = (*llm.Client)(nil)
	_ Runner      = (*runner.Manager)(nil)
)

// DeclinedOutput is recorded as the output of a code block the user refused
// to run.
const DeclinedOutput = "Code execution was declined by the user."

// ModelClient produces the model's next response to a history.
type ModelClient interface {
	Complete(ctx context.Context, history []core.Message) iter.Seq2[core.Chunk, error]
}

// Runner executes code in a persistent session for its language.
type Runner interface {
	Execute(ctx context.Context, language, code string, emit func(runner.Update)) error
}

// Approver decides whether a code block may run.
type Approver interface {
	Approve(ctx context.Context, language, code string) (bool, error)
}

// ApproverFunc adapts a function to the Approver interface.
type ApproverFunc func(ctx context.Context, language, code string) (bool, error)

func (f ApproverFunc) Approve(ctx context.Context, language, code string) (bool, error) {
	return f(ctx, language, code)
}
