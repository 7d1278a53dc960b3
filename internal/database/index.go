package database

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// IndexOptions controls CreateIndex.
type IndexOptions struct {
	Unique bool
	Name   string
}

var identPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// quoteIdent validates name as a safe SQL identifier and returns its quoted
// form. Table names here are always collection UUIDs or the fixed primary
// table names, never raw user input forwarded unchecked, but this still
// guards against a malformed collection id reaching raw SQL.
func quoteIdent(name string) (string, error) {
	if name == "" || !identPattern.MatchString(name) {
		return "", fmt.Errorf("database: invalid identifier %q", name)
	}
	return `"` + name + `"`, nil
}

// CreateIndex creates a SQLite expression index over json_extract(doc,
// '$.<field>') for each field, generalizing the store's typed
// createIndex(ns, name) contract to document fields rather than
// physical columns.
func (s *Store) CreateIndex(ctx context.Context, table string, fields []string, opts IndexOptions) error {
	tableIdent, err := quoteIdent(table)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return fmt.Errorf("database: CreateIndex requires at least one field")
	}

	exprs := make([]string, 0, len(fields))
	nameParts := make([]string, 0, len(fields))
	for _, f := range fields {
		if !identPattern.MatchString(strings.ReplaceAll(f, ".", "_")) {
			return fmt.Errorf("database: invalid index field %q", f)
		}
		exprs = append(exprs, fmt.Sprintf(`json_extract(doc, '$.%s')`, f))
		nameParts = append(nameParts, strings.ReplaceAll(f, ".", "_"))
	}

	indexName := opts.Name
	if indexName == "" {
		indexName = "idx_" + table + "_" + strings.Join(nameParts, "_")
	}
	indexIdent, err := quoteIdent(indexName)
	if err != nil {
		return err
	}

	unique := ""
	if opts.Unique {
		unique = "UNIQUE "
	}

	ddl := fmt.Sprintf(`CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)`, unique, indexIdent, tableIdent, strings.Join(exprs, ", "))
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return Wrap(err)
	}
	return nil
}
