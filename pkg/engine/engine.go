// Package engine evaluates scene scripts. It wraps zygomys in a sandboxed
// environment whose builtins feed a scene.Builder, and returns the built
// scene.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/lumen/pkg/scene"
)

// EvalError is a non-fatal error in user code, such as a parse error, a
// runtime error or a scene that fails to build.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use; each
// call to Evaluate creates a fresh sandbox and a fresh builder.
type Engine struct {
	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs a scene script and builds the scene it describes.
//
// Return semantics:
//   - On success: returns scene + nil errors + nil error
//   - On parse/eval/build failure: returns nil scene + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*scene.Scene, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		sc, evalErrs, err := e.evaluate(source)
		ch <- evalResult{scene: sc, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

func (e *Engine) evaluate(source string) (*scene.Scene, []EvalError, error) {
	b := scene.NewBuilder()

	if strings.TrimSpace(source) != "" {
		// Sandbox mode keeps scripts away from the filesystem and syscalls.
		env := zygo.NewZlispSandbox()
		defer env.Stop()
		registerBuiltins(env, b)

		if err := env.LoadString(preprocessSource(source)); err != nil {
			return nil, parseZygomysError(err), nil
		}
		if _, err := env.Run(); err != nil {
			return nil, parseZygomysError(err), nil
		}
	}

	sc, err := b.Build()
	if err != nil {
		return nil, []EvalError{{Message: err.Error()}}, nil
	}
	logger.Debugf("script produced %d sdfs, %d analytic objects, %d lights",
		len(sc.SDFs), len(sc.Analytics), len(sc.Lights))
	return sc, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalError values, pulling
// the line number out of the message when there is one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
