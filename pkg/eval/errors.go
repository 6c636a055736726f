package eval

import (
	"errors"
	"fmt"
)

// ErrNoRandomSource is returned by the random functions of an Evaluator
// built without a RandomSource.
var ErrNoRandomSource = errors.New("evaluator has no random source")

// EvaluationError wraps a failure with the expression text it came from.
type EvaluationError struct {
	Expr string
	Err  error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluating %q: %v", e.Expr, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

type UndefinedParameterError struct {
	Name string
}

func (e *UndefinedParameterError) Error() string {
	return fmt.Sprintf("undefined parameter %q", e.Name)
}

type UndefinedFunctionError struct {
	Name string
}

func (e *UndefinedFunctionError) Error() string {
	return fmt.Sprintf("undefined function %q", e.Name)
}

// ArityError reports a call with the wrong number of arguments.
type ArityError struct {
	Name string
	Got  int
	Want string
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s: got %d arguments, want %s", e.Name, e.Got, e.Want)
}

type DivisionByZeroError struct {
	Op string
}

func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("division by zero in %q", e.Op)
}

type UnsupportedDialectOperationError struct {
	Dialect string
	Op      string
}

func (e *UnsupportedDialectOperationError) Error() string {
	return fmt.Sprintf("dialect %s does not support %s", e.Dialect, e.Op)
}

// StackOverflowError reports user function recursion deeper than the
// evaluator's limit.
type StackOverflowError struct {
	Function string
	Depth    int
}

func (e *StackOverflowError) Error() string {
	return fmt.Sprintf("call depth %d exceeded in %s", e.Depth, e.Function)
}
