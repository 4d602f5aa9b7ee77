// Package executor is the boundary spec.md §4.7 draws between the compiler
// core and whatever actually runs SQL against ClickHouse: `QueryExecutor`
// capability { execute(sql) -> async Stream<Row>, execute_one(sql) -> async
// [Row] }. The core never holds a connection; it hands a finished SQL
// string to a QueryExecutor and decodes whatever comes back.
//
// DB implements QueryExecutor against the stdlib database/sql interfaces,
// the same "thin adapter over a row iterator, convert driver values by
// declared column type" shape as the teacher's driver.Rows/convertRowValue
// (see driver/rows.go) — rewritten against database/sql.Rows rather than
// the teacher's own sql.RowIter, since this repo has no SQL engine of its
// own to iterate, only a finished query string and someone else's driver.
package executor

import (
	"context"
	"database/sql"
)

// Row is one decoded result row, keyed by column name.
type Row map[string]interface{}

// QueryExecutor is the capability the compiled SQL template is handed to
// for execution (spec.md §4.7). Execute streams rows one at a time via
// RowStream's Next/Close, matching spec.md's `async Stream<Row>`;
// ExecuteOne drains the whole result set into memory, matching `async
// [Row]` for callers (e.g. sql_only=false HTTP responses) that want the
// full set rather than a stream.
type QueryExecutor interface {
	Execute(ctx context.Context, sqlText string) (*RowStream, error)
	ExecuteOne(ctx context.Context, sqlText string) ([]Row, error)
}

// RowStream iterates a running query's results one row at a time. Close
// must be called once the caller is done, whether or not Next ever
// returned false.
type RowStream struct {
	rows    *sql.Rows
	columns []string
	err     error
}

// Next advances to the next row, returning false (and any error, via Err)
// once the result set is exhausted or a row fails to scan.
func (s *RowStream) Next() (Row, bool) {
	if !s.rows.Next() {
		return nil, false
	}
	vals := make([]interface{}, len(s.columns))
	ptrs := make([]interface{}, len(s.columns))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := s.rows.Scan(ptrs...); err != nil {
		s.err = err
		return nil, false
	}
	row := make(Row, len(s.columns))
	for i, name := range s.columns {
		row[name] = vals[i]
	}
	return row, true
}

// Err returns any error encountered during iteration, once Next has
// returned false.
func (s *RowStream) Err() error {
	if s.err != nil {
		return s.err
	}
	return s.rows.Err()
}

// Close releases the underlying database/sql.Rows.
func (s *RowStream) Close() error {
	return s.rows.Close()
}

// DB is a QueryExecutor backed by a stdlib *sql.DB connection pool. The
// core never constructs one itself — it is wired in by whatever owns the
// ClickHouse connection (cmd/graphqld), per spec.md §1's "the core performs
// no I/O" boundary.
type DB struct {
	conn *sql.DB
}

// New wraps an already-open connection pool as a QueryExecutor.
func New(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

// Execute runs sqlText and returns a streaming iterator over its result set.
func (d *DB) Execute(ctx context.Context, sqlText string) (*RowStream, error) {
	rows, err := d.conn.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, err
	}
	return &RowStream{rows: rows, columns: cols}, nil
}

// ExecuteOne runs sqlText and drains its entire result set into memory.
func (d *DB) ExecuteOne(ctx context.Context, sqlText string) ([]Row, error) {
	stream, err := d.Execute(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var out []Row
	for {
		row, ok := stream.Next()
		if !ok {
			break
		}
		out = append(out, row)
	}
	return out, stream.Err()
}
