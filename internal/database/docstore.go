package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Doc is a single stored document: arbitrary JSON fields keyed by name.
// "_id" is always present once persisted.
type Doc map[string]any

const batchSize = 1000

// EnsureCollection creates the backing table for name if it does not exist,
// along with the secondary indexes on "_created" and "_updated" required by
// the data model.
func (s *Store) EnsureCollection(ctx context.Context, name string) error {
	ident, err := quoteIdent(name)
	if err != nil {
		return err
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		doc TEXT NOT NULL
	)`, ident)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return Wrap(err)
	}
	if err := s.createTimeIndex(ctx, name, "_created"); err != nil {
		return err
	}
	if err := s.createTimeIndex(ctx, name, "_updated"); err != nil {
		return err
	}
	return nil
}

func (s *Store) createTimeIndex(ctx context.Context, table, field string) error {
	return s.CreateIndex(ctx, table, []string{field}, IndexOptions{})
}

// DropCollection removes the backing table entirely (used on collection
// deletion).
func (s *Store) DropCollection(ctx context.Context, name string) error {
	ident, err := quoteIdent(name)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, ident))
	if err != nil {
		return Wrap(err)
	}
	return nil
}

// InsertOne inserts a single document, which must already carry "_id".
func (s *Store) InsertOne(ctx context.Context, table string, doc Doc) error {
	ident, err := quoteIdent(table)
	if err != nil {
		return err
	}
	id, ok := doc["_id"].(string)
	if !ok || id == "" {
		return fmt.Errorf("database: document missing _id")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("database: marshaling document: %w", err)
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES (?, ?)`, ident), id, string(raw))
	if err != nil {
		return Wrap(err)
	}
	return nil
}

// InsertFailure describes one document's rejection from an InsertMany batch.
type InsertFailure struct {
	Index  int
	Reason error
	Doc    Doc
}

// InsertManyResult is the unordered bulk-insert outcome:
// every successful id plus every per-document failure with its payload.
type InsertManyResult struct {
	Inserted []string
	Failures []InsertFailure
}

// InsertMany performs an unordered bulk insert: a failing document (most
// commonly a duplicate "_id") does not abort the batch. Internally batched
// in groups of batchSize, each batch wrapped in one SQL transaction. Each
// document is its own INSERT statement, so a constraint failure aborts only
// that statement and its batch-mates are still committed; no savepoints are
// used.
func (s *Store) InsertMany(ctx context.Context, table string, docs []Doc) (InsertManyResult, error) {
	ident, err := quoteIdent(table)
	if err != nil {
		return InsertManyResult{}, err
	}

	result := InsertManyResult{}

	for batchStart := 0; batchStart < len(docs); batchStart += batchSize {
		end := batchStart + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[batchStart:end]

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return result, fmt.Errorf("database: beginning batch transaction: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES (?, ?)`, ident))
		if err != nil {
			tx.Rollback()
			return result, fmt.Errorf("database: preparing batch insert: %w", err)
		}

		for i, doc := range batch {
			idx := batchStart + i
			id, ok := doc["_id"].(string)
			if !ok || id == "" {
				result.Failures = append(result.Failures, InsertFailure{Index: idx, Reason: fmt.Errorf("document missing _id"), Doc: doc})
				continue
			}
			raw, merr := json.Marshal(doc)
			if merr != nil {
				result.Failures = append(result.Failures, InsertFailure{Index: idx, Reason: merr, Doc: doc})
				continue
			}
			if _, err := stmt.ExecContext(ctx, id, string(raw)); err != nil {
				result.Failures = append(result.Failures, InsertFailure{Index: idx, Reason: Wrap(err), Doc: doc})
				continue
			}
			result.Inserted = append(result.Inserted, id)
		}

		stmt.Close()

		if err := tx.Commit(); err != nil {
			return result, fmt.Errorf("database: committing batch: %w", err)
		}
	}

	log.Debug().
		Str("table", table).
		Int("inserted", len(result.Inserted)).
		Int("failed", len(result.Failures)).
		Msg("bulk insert complete")

	return result, nil
}

// FindOptions controls FindMany's sort/limit/skip behavior.
type FindOptions struct {
	Sort  []SortSpec
	Limit int
	Skip  int
}

// SortSpec orders results by Field, ascending unless Desc is set.
type SortSpec struct {
	Field string
	Desc  bool
}

// FindOne returns the first document matching filter, or (nil, false).
func (s *Store) FindOne(ctx context.Context, table string, filter Doc) (Doc, bool, error) {
	docs, err := s.FindMany(ctx, table, filter, FindOptions{Limit: 1})
	if err != nil {
		return nil, false, err
	}
	if len(docs) == 0 {
		return nil, false, nil
	}
	return docs[0], true, nil
}

// FindMany loads every row from table and evaluates filter/sort/limit/skip
// in Go. This node is single-instance scale; the filter language is
// richer than a SQL WHERE translation would stay simple, so rows are
// streamed out of SQLite and matched in process.
func (s *Store) FindMany(ctx context.Context, table string, filter Doc, opts FindOptions) ([]Doc, error) {
	docs, err := s.scanAll(ctx, table)
	if err != nil {
		return nil, err
	}

	matched := make([]Doc, 0, len(docs))
	for _, d := range docs {
		if MatchFilter(d, filter) {
			matched = append(matched, d)
		}
	}

	applySort(matched, opts.Sort)

	if opts.Skip > 0 {
		if opts.Skip >= len(matched) {
			return []Doc{}, nil
		}
		matched = matched[opts.Skip:]
	}
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}

	return matched, nil
}

// Count returns the number of documents matching filter.
func (s *Store) Count(ctx context.Context, table string, filter Doc) (int, error) {
	docs, err := s.FindMany(ctx, table, filter, FindOptions{})
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (s *Store) scanAll(ctx context.Context, table string) ([]Doc, error) {
	ident, err := quoteIdent(table)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT doc FROM %s`, ident))
	if err != nil {
		if isMissingTable(err) {
			return nil, NewCollectionNotFound(table)
		}
		return nil, Wrap(err)
	}
	defer rows.Close()

	var out []Doc
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("database: scanning row: %w", err)
		}
		var d Doc
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, fmt.Errorf("database: decoding document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: iterating rows: %w", err)
	}
	return out, nil
}

// UpdateOne applies update to the first document matching filter and
// reports whether a document was matched/modified.
func (s *Store) UpdateOne(ctx context.Context, table string, filter, update Doc) (matched bool, err error) {
	n, err := s.UpdateMany(ctx, table, filter, update, updateOptions{limit: 1})
	return n > 0, err
}

type updateOptions struct {
	limit int
}

// UpdateMany applies update (a MongoDB-style {$set: {...}} document, or a
// plain field map treated as an implicit $set) to every document matching
// filter.
func (s *Store) UpdateMany(ctx context.Context, table string, filter, update Doc, opts ...updateOptions) (int, error) {
	limit := 0
	if len(opts) > 0 {
		limit = opts[0].limit
	}

	docs, err := s.FindMany(ctx, table, filter, FindOptions{})
	if err != nil {
		return 0, err
	}
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}

	ident, err := quoteIdent(table)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("database: beginning update transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`UPDATE %s SET doc = ? WHERE id = ?`, ident))
	if err != nil {
		return 0, fmt.Errorf("database: preparing update: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, d := range docs {
		ApplyUpdate(d, update)
		raw, merr := json.Marshal(d)
		if merr != nil {
			err = merr
			return count, err
		}
		id, _ := d["_id"].(string)
		if _, execErr := stmt.ExecContext(ctx, string(raw), id); execErr != nil {
			err = Wrap(execErr)
			return count, err
		}
		count++
	}

	if commitErr := tx.Commit(); commitErr != nil {
		err = fmt.Errorf("database: committing update: %w", commitErr)
		return count, err
	}

	return count, nil
}

// DeleteOne removes the first document matching filter.
func (s *Store) DeleteOne(ctx context.Context, table string, filter Doc) (bool, error) {
	n, err := s.DeleteMany(ctx, table, filter, 1)
	return n > 0, err
}

// DeleteMany removes every document matching filter, optionally capped by
// limit (0 = unlimited).
func (s *Store) DeleteMany(ctx context.Context, table string, filter Doc, limit ...int) (int, error) {
	cap := 0
	if len(limit) > 0 {
		cap = limit[0]
	}

	docs, err := s.FindMany(ctx, table, filter, FindOptions{})
	if err != nil {
		return 0, err
	}
	if cap > 0 && cap < len(docs) {
		docs = docs[:cap]
	}
	if len(docs) == 0 {
		return 0, nil
	}

	ident, err := quoteIdent(table)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("database: beginning delete transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, ident))
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("database: preparing delete: %w", err)
	}

	count := 0
	for _, d := range docs {
		id, _ := d["_id"].(string)
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			stmt.Close()
			tx.Rollback()
			return count, Wrap(err)
		}
		count++
	}
	stmt.Close()

	if err := tx.Commit(); err != nil {
		return count, fmt.Errorf("database: committing delete: %w", err)
	}

	return count, nil
}

func applySort(docs []Doc, sorts []SortSpec) {
	if len(sorts) == 0 {
		return
	}
	lessFuncSort(docs, sorts)
}

func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
