// Package sqlite is the generic SQLite query host-binding spec §4.15
// names: a read-only Query entry point over an arbitrary on-disk SQLite
// database (Safari/Chrome history, macOS Spotlight-adjacent store.db,
// any other SQLite-backed artifact this repo doesn't parse a dedicated
// container for). Grounded on ClusterCockpit-cc-backend's pairing of
// github.com/mattn/go-sqlite3 (driver) with github.com/jmoiron/sqlx
// (query convenience), e.g. its internal/repository/dbConnection.go
// sqlx.Open("sqlite3", ...) call.
package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens path read-only: forensic triage must never mutate the
// artifact it's reading.
func Open(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro&immutable=1", path))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping %q: %w", path, err)
	}
	return db, nil
}

// Query runs a read-only query against db and returns each row decoded
// into a map of column name to value, suitable for direct JSON
// marshaling by the scripting host binding or artifacts/facade.
func Query(ctx context.Context, db *sqlx.DB, query string, args ...any) ([]map[string]any, error) {
	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query: %w", err)
	}
	defer rows.Close()

	var results []map[string]any
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("sqlite: scan row: %w", err)
		}
		results = append(results, normalizeRow(row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate rows: %w", err)
	}
	return results, nil
}

// normalizeRow converts driver-returned []byte columns (TEXT/BLOB come
// back as []byte from mattn/go-sqlite3) into strings so the result
// serializes as JSON text rather than a base64 blob for ordinary text
// columns; genuine BLOB columns are left as []byte, which encoding/json
// already base64-encodes.
func normalizeRow(row map[string]any) map[string]any {
	for k, v := range row {
		if b, ok := v.([]byte); ok && isPrintableText(b) {
			row[k] = string(b)
		}
	}
	return row
}

func isPrintableText(b []byte) bool {
	for _, c := range b {
		if c == 0 {
			return false
		}
	}
	return true
}
