package queryengine

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/nilnode/nildb/internal/nilerrors"
)

// GuardEngine compiles and caches "$expr" pipeline-stage guard expressions:
// one program per distinct guard expression string, evaluated against the
// variables supplied to a query run.
type GuardEngine struct {
	env      *cel.Env
	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewGuardEngine builds a GuardEngine whose expressions see a single
// "vars" map of the query's injected variables.
func NewGuardEngine() (*GuardEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("vars", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("queryengine: creating CEL environment: %w", err)
	}
	return &GuardEngine{env: env, programs: make(map[string]cel.Program)}, nil
}

func (g *GuardEngine) compile(expr string) (cel.Program, error) {
	g.mu.RLock()
	p, ok := g.programs[expr]
	g.mu.RUnlock()
	if ok {
		return p, nil
	}

	ast, issues := g.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compiling guard expression: %w", issues.Err())
	}
	program, err := g.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("building guard program: %w", err)
	}

	g.mu.Lock()
	g.programs[expr] = program
	g.mu.Unlock()
	return program, nil
}

// Evaluate runs every guard expression against vars; the first one to
// evaluate false (or fail to compile/evaluate, or fail to return a bool)
// denies the query run.
func (g *GuardEngine) Evaluate(guards []string, vars map[string]any) error {
	for _, expr := range guards {
		program, err := g.compile(expr)
		if err != nil {
			return nilerrors.Wrap(nilerrors.QueryValidation, "guard expression", err)
		}

		result, _, err := program.Eval(map[string]any{"vars": vars})
		if err != nil {
			return nilerrors.Wrap(nilerrors.Forbidden, "guard evaluation failed", err)
		}
		allowed, ok := result.Value().(bool)
		if !ok {
			return nilerrors.New(nilerrors.QueryValidation, "guard expression did not return a boolean")
		}
		if !allowed {
			return nilerrors.New(nilerrors.Forbidden, "query denied by guard expression")
		}
	}
	return nil
}
