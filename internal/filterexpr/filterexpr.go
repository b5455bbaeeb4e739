// Package filterexpr compiles CEL expressions into client-side key
// predicates. Expressions see two string variables: `key` (the full key)
// and `type` (the resolved type label, e.g. "LIST", empty while
// unresolved).
package filterexpr

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	celext "github.com/google/cel-go/ext"
)

// Predicate is a compiled, reusable key filter. Safe for concurrent use.
type Predicate struct {
	prg cel.Program
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("key", cel.StringType),
		cel.Variable("type", cel.StringType),
		celext.Strings(),
	)
}

// Compile parses and type-checks the expression. Errors here are
// validation errors: nothing has touched the store yet. The expression
// must evaluate to bool.
func Compile(expr string) (*Predicate, error) {
	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("invalid filter expression: result is %s, want bool", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return &Predicate{prg: prg}, nil
}

// Match evaluates the predicate for one key/type pair.
func (p *Predicate) Match(key, typeLabel string) (bool, error) {
	out, _, err := p.prg.Eval(map[string]interface{}{
		"key":  key,
		"type": typeLabel,
	})
	if err != nil {
		return false, fmt.Errorf("filter eval failed for %q: %w", key, err)
	}
	b, ok := out.(types.Bool)
	if !ok {
		return false, fmt.Errorf("filter eval for %q returned %T, want bool", key, out)
	}
	return bool(b), nil
}
