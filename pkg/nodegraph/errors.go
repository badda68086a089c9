package nodegraph

import (
	"errors"
	"fmt"
)

var (
	ErrCycle           = errors.New("nodegraph: dependency cycle")
	ErrNoOutput        = errors.New("nodegraph: graph has no output node")
	ErrAmbiguousOutput = errors.New("nodegraph: more than one output node of the same kind")
)

// ParseError is a syntax or reference error at a 1-based source line.
type ParseError struct {
	Line int
	Msg  string
	Err  error // optional sentinel, e.g. ErrCycle
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("nodegraph: line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErrorf(line int, format string, args ...interface{}) *ParseError {
	return &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}
}
