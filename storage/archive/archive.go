// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package archive stores analysis reports in a SQL database.
//
// Each stored report is identified by a random run ID and indexed by
// the fingerprint of the input table and configuration that produced
// it, so repeated analyses of the same data can be found and
// compared. Report payloads are JSON, optionally compressed.
package archive

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/context"

	"github.com/uarchlab/latstat/analysis"
)

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("report not found")

// Archive is a report store backed by a SQL database. It's safe for
// concurrent use by multiple goroutines.
type Archive struct {
	sql   *sql.DB
	codec Codec

	// prepared statements
	insert        *sql.Stmt
	byID          *sql.Stmt
	byFingerprint *sql.Stmt
}

// Open opens an archive described as "driver:dsn", for example
// "sqlite3:reports.db" or "mysql:user@cloudsql(project:region:db)/perf".
func Open(spec string) (*Archive, error) {
	driver, dsn, ok := strings.Cut(spec, ":")
	if !ok || driver == "" || dsn == "" {
		return nil, fmt.Errorf("archive %q: want driver:dsn", spec)
	}
	return OpenSQL(driver, dsn)
}

// OpenSQL creates an Archive backed by a SQL database. The parameters
// are the same as the parameters for sql.Open. Only mysql and sqlite3
// are explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*Archive, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	a := &Archive{sql: db, codec: CodecZstd}
	if err := a.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	if err := a.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a
// connection to driverName. It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Reports (
	RunID CHAR(36) PRIMARY KEY,
	Fingerprint CHAR(16) NOT NULL,
	Name VARCHAR(255),
	Kind VARCHAR(32),
	Created BIGINT,
	Codec VARCHAR(8),
	Payload {{if .sqlite3}}BLOB{{else}}LONGBLOB{{end}}
{{if not .sqlite3}}
	, INDEX (Fingerprint)
{{end}}
);
{{if .sqlite3}}
CREATE INDEX IF NOT EXISTS ReportsFingerprint ON Reports(Fingerprint);
{{end}}
`))

// createTables creates any missing tables. driverName is the same
// driver name passed to sql.Open and selects the correct syntax.
func (a *Archive) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := a.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

func (a *Archive) prepareStatements() error {
	var err error
	a.insert, err = a.sql.Prepare("INSERT INTO Reports(RunID, Fingerprint, Name, Kind, Created, Codec, Payload) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	a.byID, err = a.sql.Prepare("SELECT RunID, Fingerprint, Name, Kind, Created, Codec, Payload FROM Reports WHERE RunID = ?")
	if err != nil {
		return err
	}
	a.byFingerprint, err = a.sql.Prepare("SELECT RunID, Fingerprint, Name, Kind, Created, Codec FROM Reports WHERE Fingerprint = ? ORDER BY Created, RunID")
	return err
}

// SetCodec sets the compression used for reports stored from now on.
// Stored reports record their own codec and stay readable.
func (a *Archive) SetCodec(c Codec) error {
	if _, err := c.compress(nil); err != nil {
		return err
	}
	a.codec = c
	return nil
}

// An Entry is a stored report.
type Entry struct {
	RunID       string
	Fingerprint string
	Name        string
	Kind        analysis.Kind
	Created     time.Time
	Codec       Codec

	// JSON is the report's JSON encoding. It is nil in the results
	// of Lookup.
	JSON []byte
}

// Put stores r under fingerprint fp and returns its new run ID.
func (a *Archive) Put(ctx context.Context, fp string, r *analysis.Report) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	codec := a.codec
	payload, err := codec.compress(data)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	if _, err := a.insert.ExecContext(ctx, id, fp, r.Name, string(r.Kind), time.Now().UnixNano(), string(codec), payload); err != nil {
		return "", fmt.Errorf("archive report: %w", err)
	}
	return id, nil
}

// Get returns the report stored under runID, or ErrNotFound.
func (a *Archive) Get(ctx context.Context, runID string) (*Entry, error) {
	var e Entry
	var created int64
	var payload []byte
	err := a.byID.QueryRowContext(ctx, runID).Scan(&e.RunID, &e.Fingerprint, &e.Name, &e.Kind, &created, &e.Codec, &payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	e.Created = time.Unix(0, created)
	if e.JSON, err = e.Codec.decompress(payload); err != nil {
		return nil, fmt.Errorf("report %s: %w", runID, err)
	}
	return &e, nil
}

// Lookup returns the reports stored under fingerprint fp, oldest
// first, without their payloads.
func (a *Archive) Lookup(ctx context.Context, fp string) ([]*Entry, error) {
	rows, err := a.byFingerprint.QueryContext(ctx, fp)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.RunID, &e.Fingerprint, &e.Name, &e.Kind, &created, &e.Codec); err != nil {
			return nil, err
		}
		e.Created = time.Unix(0, created)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// Close closes the database connections, releasing any open resources.
func (a *Archive) Close() error {
	for _, s := range []*sql.Stmt{a.insert, a.byID, a.byFingerprint} {
		if err := s.Close(); err != nil {
			return err
		}
	}
	return a.sql.Close()
}
