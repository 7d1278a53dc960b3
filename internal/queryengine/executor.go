package queryengine

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nilnode/nildb/internal/identity"
	"github.com/nilnode/nildb/internal/nilerrors"
	"github.com/nilnode/nildb/internal/store"
	"github.com/nilnode/nildb/internal/sysinfo"
)

// backgroundTimeout is the hard deadline on a background query run.
const backgroundTimeout = 30 * time.Minute

// RunBackground creates a QueryRun in pending and launches its execution
// on a detached goroutine, returning immediately with the run's ID. The
// goroutine transitions the run through running -> complete|error. The
// aggregate runs under a 30-minute context.WithTimeout deadline; an
// aggregate that fails once that deadline has passed is recorded on the run
// as a "timed out" error.
func (e *Engine) RunBackground(ctx context.Context, caller identity.DID, q *store.Query, provided map[string]any) (*store.QueryRun, error) {
	if !q.Owner.Equal(caller) {
		return nil, nilerrors.New(nilerrors.ResourceAccessDenied, "caller does not own this query")
	}

	run, err := e.entities.CreateQueryRun(ctx, q.ID)
	if err != nil {
		return nil, err
	}

	go e.executeBackground(run.ID, q, provided)

	return run, nil
}

func (e *Engine) executeBackground(runID string, q *store.Query, provided map[string]any) {
	start := time.Now()
	status := string(store.RunError)
	defer func() { sysinfo.RecordQueryRun("background", status, time.Since(start)) }()

	// storeCtx is deliberately not tied to the execution deadline: a
	// timed-out aggregate must still be able to write the error
	// transition, which a cancelled context would block.
	storeCtx := context.Background()

	if err := e.entities.TransitionRunning(storeCtx, runID); err != nil {
		log.Error().Err(err).Str("run", runID).Msg("failed to transition query run to running")
		return
	}

	stages, err := e.resolveRun(q, provided)
	if err != nil {
		e.finishWithError(storeCtx, runID, err)
		return
	}

	workCtx, cancel := context.WithTimeout(storeCtx, backgroundTimeout)
	docs, err := e.entities.Data().Aggregate(workCtx, q.Collection, stages)
	timedOut := workCtx.Err() != nil
	cancel()

	if err != nil {
		if timedOut {
			e.finishWithError(storeCtx, runID, errTimedOut)
			return
		}
		e.finishWithError(storeCtx, runID, err)
		return
	}

	if completeErr := e.entities.TransitionComplete(storeCtx, runID, toMaps(docs)); completeErr != nil {
		log.Error().Err(completeErr).Str("run", runID).Msg("failed to transition query run to complete")
		return
	}
	status = string(store.RunComplete)
}

var errTimedOut = nilerrors.New(nilerrors.Timeout, "timed out")

func (e *Engine) finishWithError(ctx context.Context, runID string, cause error) {
	if err := e.entities.TransitionError(ctx, runID, []string{cause.Error()}); err != nil {
		log.Error().Err(err).Str("run", runID).Msg("failed to transition query run to error")
	}
}
