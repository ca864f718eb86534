package queue

import (
	"strings"
	"time"

	"github.com/google/cel-go/cel"
)

// Filter wraps a compiled CEL program evaluated per record during List.
// When disabled (empty expression), Match always returns true.
//
// Exposed variables: record (the structured item), index (zero-based
// position in the queue), now_ms (evaluation time in milliseconds).
type Filter struct {
	prog    cel.Program
	enabled bool
}

// NewFilter compiles expr. An empty expression yields a disabled filter.
func NewFilter(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return &Filter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("record", cel.DynType),
		cel.Variable("index", cel.IntType),
		cel.Variable("now_ms", cel.IntType),
		// Records decode from JSON, so numbers surface as doubles; let
		// expressions compare them against integer literals.
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return nil, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return nil, err
	}
	return &Filter{prog: prog, enabled: true}, nil
}

// Match evaluates the expression against one record. Evaluation errors count
// as non-matches.
func (f *Filter) Match(index int, rec Record) bool {
	if f == nil || !f.enabled {
		return true
	}
	out, _, err := f.prog.Eval(map[string]any{
		"record": map[string]any(rec),
		"index":  int64(index),
		"now_ms": time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
