// Package store holds the derived occurrence index: every class token across
// every indexed document, keyed by literal, in an in-memory SQLite database.
// Per-document snapshots live in the cnls package; the store exists to answer
// the cross-document side of hover and definition (ordered occurrence lists)
// without hand-rolling the sorting and filtering.
//
// The database is opened with the :memory: DSN and a single pool connection,
// so nothing is ever written to disk and every query sees the same data.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for the occurrence index.
type Store struct {
	db *sql.DB
}

// NewStore opens a private in-memory SQLite database.
func NewStore() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A second pool connection would see a different empty :memory: database;
	// keep exactly one.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates the tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS documents (
  id              INTEGER PRIMARY KEY,
  uri             TEXT NOT NULL UNIQUE,
  version         INTEGER NOT NULL DEFAULT 0,
  background      BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS occurrences (
  id              INTEGER PRIMARY KEY,
  document_id     INTEGER NOT NULL REFERENCES documents(id),
  literal         TEXT NOT NULL,
  kind            TEXT NOT NULL,
  rule            TEXT,
  start_line      INTEGER NOT NULL,
  start_col       INTEGER NOT NULL,
  end_line        INTEGER NOT NULL,
  end_col         INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_uri ON documents(uri);
CREATE INDEX IF NOT EXISTS idx_occurrences_literal ON occurrences(literal);
CREATE INDEX IF NOT EXISTS idx_occurrences_document ON occurrences(document_id);
`

// Occurrence is one indexed class token as stored and queried.
type Occurrence struct {
	URI        string
	Literal    string
	Kind       string
	Rule       string
	Background bool
	StartLine  int
	StartCol   int
	EndLine    int
	EndCol     int
}

// ReplaceDocument transactionally swaps a document's contribution to the
// index: the previous document row and its occurrences are deleted and the
// new set inserted. Readers see either the old or the new contribution,
// never a partial mix.
func (s *Store) ReplaceDocument(uri string, version int64, background bool, occs []Occurrence) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteDocumentTx(tx, uri); err != nil {
		return err
	}

	res, err := tx.Exec(
		"INSERT INTO documents (uri, version, background) VALUES (?, ?, ?)",
		uri, version, background,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	docID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("document id: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO occurrences
		 (document_id, literal, kind, rule, start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range occs {
		if _, err := stmt.Exec(
			docID, o.Literal, o.Kind, o.Rule,
			o.StartLine, o.StartCol, o.EndLine, o.EndCol,
		); err != nil {
			return fmt.Errorf("insert occurrence %q: %w", o.Literal, err)
		}
	}
	return tx.Commit()
}

// RemoveDocument deletes a document and its occurrences. Removing a document
// that is not indexed is not an error.
func (s *Store) RemoveDocument(uri string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteDocumentTx(tx, uri); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteDocumentTx(tx *sql.Tx, uri string) error {
	if _, err := tx.Exec(
		"DELETE FROM occurrences WHERE document_id IN (SELECT id FROM documents WHERE uri = ?)",
		uri,
	); err != nil {
		return fmt.Errorf("delete occurrences: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM documents WHERE uri = ?", uri); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Occurrences returns every indexed occurrence of literal, ordered by
// document URI then source position.
func (s *Store) Occurrences(literal string) ([]Occurrence, error) {
	rows, err := s.db.Query(
		`SELECT d.uri, o.literal, o.kind, COALESCE(o.rule, ''), d.background,
		        o.start_line, o.start_col, o.end_line, o.end_col
		 FROM occurrences o JOIN documents d ON d.id = o.document_id
		 WHERE o.literal = ?
		 ORDER BY d.uri, o.start_line, o.start_col`,
		literal,
	)
	if err != nil {
		return nil, fmt.Errorf("occurrences of %q: %w", literal, err)
	}
	defer rows.Close()

	var occs []Occurrence
	for rows.Next() {
		var o Occurrence
		if err := rows.Scan(
			&o.URI, &o.Literal, &o.Kind, &o.Rule, &o.Background,
			&o.StartLine, &o.StartCol, &o.EndLine, &o.EndCol,
		); err != nil {
			return nil, fmt.Errorf("scan occurrence: %w", err)
		}
		occs = append(occs, o)
	}
	return occs, rows.Err()
}

// CountOccurrences returns how many occurrences of literal are indexed.
func (s *Store) CountOccurrences(literal string) (int, error) {
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM occurrences WHERE literal = ?", literal,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count occurrences of %q: %w", literal, err)
	}
	return n, nil
}

// DocumentVersion returns the indexed version for uri, or (0, false) when
// the document is not indexed.
func (s *Store) DocumentVersion(uri string) (int64, bool, error) {
	var v int64
	err := s.db.QueryRow("SELECT version FROM documents WHERE uri = ?", uri).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("document version: %w", err)
	}
	return v, true, nil
}

// Literals returns the distinct literals currently indexed, sorted.
func (s *Store) Literals() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT literal FROM occurrences ORDER BY literal")
	if err != nil {
		return nil, fmt.Errorf("literals: %w", err)
	}
	defer rows.Close()

	var literals []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("scan literal: %w", err)
		}
		literals = append(literals, l)
	}
	return literals, rows.Err()
}
