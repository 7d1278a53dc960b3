// Package queryengine implements saved aggregation queries: pipeline
// and variable-path validation at registration, variable validation and
// positional injection at execution time, and both synchronous and
// background (job-state-machine) execution.
package queryengine

import (
	"context"
	"time"

	"github.com/nilnode/nildb/internal/database"
	"github.com/nilnode/nildb/internal/identity"
	"github.com/nilnode/nildb/internal/nilerrors"
	"github.com/nilnode/nildb/internal/store"
	"github.com/nilnode/nildb/internal/sysinfo"
)

// Tainter is notified when a Builder's denormalized query set changes, so
// an in-memory builder cache (internal/lifecycle) can invalidate its
// entry. A nil Tainter is valid — registration still succeeds, it just has
// nobody to notify.
type Tainter interface {
	Taint(did identity.DID)
}

// Engine registers and executes saved queries.
type Engine struct {
	entities *store.Store
	guards   *GuardEngine
	tainter  Tainter
}

// New builds an Engine. tainter may be nil.
func New(entities *store.Store, guards *GuardEngine, tainter Tainter) *Engine {
	return &Engine{entities: entities, guards: guards, tainter: tainter}
}

// AddQuery registers a new Query: validates the pipeline
// shape and every variable path, confirms the caller owns the referenced
// collection, inserts the Query, and links it into the owning Builder's
// query set.
func (e *Engine) AddQuery(ctx context.Context, caller identity.DID, q *store.Query) (*store.Query, error) {
	if err := ValidateRegistration(q.Pipeline, q.Variables); err != nil {
		return nil, err
	}

	coll, err := e.entities.GetCollection(ctx, q.Collection)
	if err != nil {
		return nil, err
	}
	if !coll.Owner.Equal(caller) {
		return nil, nilerrors.New(nilerrors.ResourceAccessDenied, "caller does not own the query's collection")
	}

	q.Owner = caller
	created, err := e.entities.CreateQuery(ctx, q)
	if err != nil {
		return nil, err
	}

	if err := e.entities.AddQuery(ctx, caller, created.ID); err != nil {
		return nil, err
	}
	if e.tainter != nil {
		e.tainter.Taint(caller)
	}

	return created, nil
}

// RemoveQuery deletes a Query and unlinks it from its owning Builder,
// invoked directly rather than through the cascade.
func (e *Engine) RemoveQuery(ctx context.Context, caller identity.DID, id string) error {
	q, err := e.entities.GetQuery(ctx, id)
	if err != nil {
		return err
	}
	if !q.Owner.Equal(caller) {
		return nilerrors.New(nilerrors.ResourceAccessDenied, "caller does not own this query")
	}
	if err := e.entities.RemoveQuery(ctx, caller, id); err != nil {
		return err
	}
	if e.tainter != nil {
		e.tainter.Taint(caller)
	}
	return e.entities.DeleteQuery(ctx, id)
}

// resolveRun validates provided against q.Variables, builds the effective
// pipeline (guards separated out) via injection, and evaluates any "$expr"
// guards.
func (e *Engine) resolveRun(q *store.Query, provided map[string]any) ([]database.Doc, error) {
	values, err := ValidateProvided(q.Variables, provided)
	if err != nil {
		return nil, err
	}

	varPaths := make(map[string]string, len(q.Variables))
	for name, v := range q.Variables {
		varPaths[name] = v.Path
	}

	injected, err := inject(q.Pipeline, varPaths, values)
	if err != nil {
		return nil, nilerrors.Wrap(nilerrors.VariableInjection, "injecting variables", err)
	}

	guards, rest := splitExprStages(injected)
	if len(guards) > 0 && e.guards != nil {
		if err := e.guards.Evaluate(guards, values); err != nil {
			return nil, err
		}
	}

	stages := make([]database.Doc, 0, len(rest))
	for _, s := range rest {
		stages = append(stages, database.Doc(s))
	}
	return stages, nil
}

// RunSync executes q synchronously against its collection's data store and
// returns the result list.
func (e *Engine) RunSync(ctx context.Context, caller identity.DID, q *store.Query, provided map[string]any) (result []map[string]any, err error) {
	start := time.Now()
	defer func() {
		status := string(store.RunComplete)
		if err != nil {
			status = string(store.RunError)
		}
		sysinfo.RecordQueryRun("sync", status, time.Since(start))
	}()

	if !q.Owner.Equal(caller) {
		return nil, nilerrors.New(nilerrors.ResourceAccessDenied, "caller does not own this query")
	}

	stages, err := e.resolveRun(q, provided)
	if err != nil {
		return nil, err
	}

	docs, err := e.entities.Data().Aggregate(ctx, q.Collection, stages)
	if err != nil {
		return nil, nilerrors.Wrap(nilerrors.DatabaseError, "executing query", err)
	}
	return toMaps(docs), nil
}

// GetRun loads a QueryRun, validating that the caller owns the originating
// Query. If that Query has been deleted, no ownership check is possible: a
// run still pending or running is moved to error with "query not found",
// and the run is returned.
func (e *Engine) GetRun(ctx context.Context, caller identity.DID, runID string) (*store.QueryRun, error) {
	run, err := e.entities.GetQueryRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	q, err := e.entities.GetQuery(ctx, run.Query)
	if err != nil {
		if nilerrors.Is(err, nilerrors.DocumentNotFound) {
			if run.Status == store.RunPending || run.Status == store.RunRunning {
				if err := e.entities.TransitionError(ctx, runID, []string{"query not found"}); err != nil {
					return nil, err
				}
				return e.entities.GetQueryRun(ctx, runID)
			}
			return run, nil
		}
		return nil, err
	}
	if !q.Owner.Equal(caller) {
		return nil, nilerrors.New(nilerrors.ResourceAccessDenied, "caller does not own this query")
	}
	return run, nil
}

func toMaps(docs []database.Doc) []map[string]any {
	out := make([]map[string]any, len(docs))
	for i, d := range docs {
		out[i] = map[string]any(d)
	}
	return out
}
