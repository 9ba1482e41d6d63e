// ABOUTME: Generic backend client over one SQLite table
// ABOUTME: Uniform select/insert/update/delete contract used by every list view
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/crmgrid/models"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrUnknownField = errors.New("unknown field")
	ErrEmptyPatch   = errors.New("empty patch")
)

type scanner interface {
	Scan(dest ...any) error
}

// tableSpec describes how one record type maps onto its table.
type tableSpec[T any] struct {
	name  string
	alias string
	// writable columns, excluding id and audit columns
	columns []string
	// SELECT ... FROM ... [JOIN ...] without WHERE or ORDER BY
	selectSQL string
	orderBy   string
	scan      func(scanner) (T, error)
	values    func(*T) []any
	id        func(*T) *string
	audit     func(*T) *models.Audit
}

// Table is the backend client for one collection.
type Table[T any] struct {
	db    *sql.DB
	spec  tableSpec[T]
	actor string
}

func newTable[T any](db *sql.DB, actor string, spec tableSpec[T]) *Table[T] {
	return &Table[T]{db: db, spec: spec, actor: actor}
}

// Name returns the table name.
func (t *Table[T]) Name() string {
	return t.spec.name
}

// Columns returns the writable columns in insert order.
func (t *Table[T]) Columns() []string {
	out := make([]string, len(t.spec.columns))
	copy(out, t.spec.columns)
	return out
}

// Select reads the whole collection, including any joined display fields.
func (t *Table[T]) Select(ctx context.Context) ([]T, error) {
	q := t.spec.selectSQL
	if t.spec.orderBy != "" {
		q += " ORDER BY " + t.spec.orderBy
	}

	rows, err := t.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", t.spec.name, err)
	}
	defer func() { _ = rows.Close() }()

	var out []T
	for rows.Next() {
		rec, err := t.spec.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t.spec.name, err)
		}
		out = append(out, rec)
	}

	return out, rows.Err()
}

// Get reads a single record by ID.
func (t *Table[T]) Get(ctx context.Context, id string) (*T, error) {
	q := t.spec.selectSQL + " WHERE " + t.spec.alias + ".id = ?"

	rec, err := t.spec.scan(t.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s %s: %w", t.spec.name, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", t.spec.name, err)
	}

	return &rec, nil
}

// Insert writes a new record, assigning an ID and audit fields.
func (t *Table[T]) Insert(ctx context.Context, rec *T) error {
	id := t.spec.id(rec)
	if *id == "" {
		*id = uuid.New().String()
	}

	now := time.Now().UTC()
	audit := t.spec.audit(rec)
	audit.CreatedBy = t.actor
	audit.CreatedTime = now
	audit.ModifiedBy = t.actor
	audit.ModifiedTime = now

	cols := append([]string{"id"}, t.spec.columns...)
	cols = append(cols, "created_by", "created_time", "modified_by", "modified_time")

	args := []any{*id}
	args = append(args, t.spec.values(rec)...)
	args = append(args, audit.CreatedBy, audit.CreatedTime, audit.ModifiedBy, audit.ModifiedTime)

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.spec.name, strings.Join(cols, ", "), placeholders(len(cols)))

	if _, err := t.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("failed to insert %s: %w", t.spec.name, err)
	}

	return nil
}

// Save performs a full field write of an existing record.
func (t *Table[T]) Save(ctx context.Context, rec *T) error {
	patch := make(map[string]any, len(t.spec.columns))
	vals := t.spec.values(rec)
	for i, col := range t.spec.columns {
		patch[col] = vals[i]
	}

	if err := t.Update(ctx, *t.spec.id(rec), patch); err != nil {
		return err
	}

	audit := t.spec.audit(rec)
	audit.ModifiedBy = t.actor
	audit.ModifiedTime = time.Now().UTC()
	return nil
}

// Update performs a partial field write. Unknown columns are rejected.
func (t *Table[T]) Update(ctx context.Context, id string, patch map[string]any) error {
	if len(patch) == 0 {
		return ErrEmptyPatch
	}

	var sets []string
	var args []any
	// iterate the declared column order so statements are deterministic
	for _, col := range t.spec.columns {
		v, ok := patch[col]
		if !ok {
			continue
		}
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if len(sets) != len(patch) {
		for k := range patch {
			if !t.hasColumn(k) {
				return fmt.Errorf("%s.%s: %w", t.spec.name, k, ErrUnknownField)
			}
		}
	}

	sets = append(sets, "modified_by = ?", "modified_time = ?")
	args = append(args, t.actor, time.Now().UTC(), id)

	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", t.spec.name, strings.Join(sets, ", "))
	res, err := t.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", t.spec.name, err)
	}

	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("%s %s: %w", t.spec.name, id, ErrNotFound)
	}

	return nil
}

// Delete removes the given IDs in a single statement.
func (t *Table[T]) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	q := fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", t.spec.name, placeholders(len(ids)))
	res, err := t.db.ExecContext(ctx, q, toArgs(ids)...)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", t.spec.name, err)
	}

	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("%s %s: %w", t.spec.name, strings.Join(ids, ", "), ErrNotFound)
	}

	return nil
}

// DeleteWhereIn removes every row whose column value is in values.
func (t *Table[T]) DeleteWhereIn(ctx context.Context, column string, values []string) error {
	if len(values) == 0 {
		return nil
	}
	if column != "id" && !t.hasColumn(column) {
		return fmt.Errorf("%s.%s: %w", t.spec.name, column, ErrUnknownField)
	}

	q := fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)", t.spec.name, column, placeholders(len(values)))
	if _, err := t.db.ExecContext(ctx, q, toArgs(values)...); err != nil {
		return fmt.Errorf("failed to delete %s by %s: %w", t.spec.name, column, err)
	}

	return nil
}

// CountWhereIn counts rows per value of column, for the given values.
// Values with no rows are absent from the result.
func (t *Table[T]) CountWhereIn(ctx context.Context, column string, values []string) (map[string]int, error) {
	counts := make(map[string]int)
	if len(values) == 0 {
		return counts, nil
	}
	if !t.hasColumn(column) {
		return nil, fmt.Errorf("%s.%s: %w", t.spec.name, column, ErrUnknownField)
	}

	q := fmt.Sprintf("SELECT %s, COUNT(*) FROM %s WHERE %s IN (%s) GROUP BY %s",
		column, t.spec.name, column, placeholders(len(values)), column)

	rows, err := t.db.QueryContext(ctx, q, toArgs(values)...)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", t.spec.name, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		counts[key] = n
	}

	return counts, rows.Err()
}

func (t *Table[T]) hasColumn(col string) bool {
	for _, c := range t.spec.columns {
		if c == col {
			return true
		}
	}
	return false
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func toArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
