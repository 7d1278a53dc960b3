package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nilnode/nildb/internal/database"
	"github.com/nilnode/nildb/internal/nilerrors"
)

// RunStatus is a QueryRun's state-machine position.
type RunStatus string

const (
	RunPending  RunStatus = "pending"
	RunRunning  RunStatus = "running"
	RunComplete RunStatus = "complete"
	RunError    RunStatus = "error"
)

// QueryRun is the materialised execution record of a Query against a
// specific variable binding.
type QueryRun struct {
	ID        string           `json:"_id"`
	Created   time.Time        `json:"_created"`
	Updated   time.Time        `json:"_updated"`
	Query     string           `json:"query"`
	Status    RunStatus        `json:"status"`
	Started   *time.Time       `json:"started,omitempty"`
	Completed *time.Time       `json:"completed,omitempty"`
	Result    []map[string]any `json:"result,omitempty"`
	Errors    []string         `json:"errors,omitempty"`
}

// CreateQueryRun inserts a new run in RunPending for queryID.
func (s *Store) CreateQueryRun(ctx context.Context, queryID string) (*QueryRun, error) {
	now := database.Now()
	run := &QueryRun{ID: uuid.NewString(), Created: now, Updated: now, Query: queryID, Status: RunPending}
	doc, err := encode(run)
	if err != nil {
		return nil, err
	}
	if err := s.primary.InsertOne(ctx, tableRuns, doc); err != nil {
		return nil, nilerrors.Wrap(nilerrors.DatabaseError, "creating query run", err)
	}
	return run, nil
}

// GetQueryRun loads a QueryRun by ID.
func (s *Store) GetQueryRun(ctx context.Context, id string) (*QueryRun, error) {
	doc, ok, err := s.primary.FindOne(ctx, tableRuns, database.Doc{"_id": id})
	if err != nil {
		return nil, nilerrors.Wrap(nilerrors.DatabaseError, "loading query run", err)
	}
	if !ok {
		return nil, nilerrors.New(nilerrors.DocumentNotFound, "query run not found")
	}
	var r QueryRun
	if err := decode(doc, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// TransitionRunning moves a pending run to running and stamps Started.
// No-ops (leaves status untouched) if the run is already terminal —
// status is monotone (Invariant 4).
func (s *Store) TransitionRunning(ctx context.Context, id string) error {
	run, err := s.GetQueryRun(ctx, id)
	if err != nil {
		return err
	}
	if run.Status != RunPending {
		return nil
	}
	now := database.Now()
	_, err = s.primary.UpdateOne(ctx, tableRuns, database.Doc{"_id": id}, database.Doc{
		"$set": database.Doc{"status": string(RunRunning), "started": now, "_updated": now},
	})
	if err != nil {
		return nilerrors.Wrap(nilerrors.DatabaseError, "transitioning query run", err)
	}
	return nil
}

// TransitionComplete moves a run to the terminal RunComplete state with its
// result. No-ops if already terminal.
func (s *Store) TransitionComplete(ctx context.Context, id string, result []map[string]any) error {
	run, err := s.GetQueryRun(ctx, id)
	if err != nil {
		return err
	}
	if run.Status == RunComplete || run.Status == RunError {
		return nil
	}
	now := database.Now()
	_, err = s.primary.UpdateOne(ctx, tableRuns, database.Doc{"_id": id}, database.Doc{
		"$set": database.Doc{"status": string(RunComplete), "completed": now, "result": result, "_updated": now},
	})
	if err != nil {
		return nilerrors.Wrap(nilerrors.DatabaseError, "completing query run", err)
	}
	return nil
}

// TransitionError moves a run to the terminal RunError state with rendered
// error messages. No-ops if already terminal.
func (s *Store) TransitionError(ctx context.Context, id string, messages []string) error {
	run, err := s.GetQueryRun(ctx, id)
	if err != nil {
		return err
	}
	if run.Status == RunComplete || run.Status == RunError {
		return nil
	}
	now := database.Now()
	_, err = s.primary.UpdateOne(ctx, tableRuns, database.Doc{"_id": id}, database.Doc{
		"$set": database.Doc{"status": string(RunError), "completed": now, "errors": messages, "_updated": now},
	})
	if err != nil {
		return nilerrors.Wrap(nilerrors.DatabaseError, "erroring query run", err)
	}
	return nil
}

// DeleteRunsOlderThan deletes every QueryRun created before cutoff,
// returning the number removed. It is invoked explicitly (see the "gc"
// CLI command) and never runs on its own.
func (s *Store) DeleteRunsOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	n, err := s.primary.DeleteMany(ctx, tableRuns, database.Doc{
		"_created": database.Doc{"$lt": cutoff.Format(time.RFC3339)},
	})
	if err != nil {
		return 0, nilerrors.Wrap(nilerrors.DatabaseError, "collecting query runs", err)
	}
	return n, nil
}
