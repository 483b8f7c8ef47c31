// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package csql wraps a postgres database with the set of schemas the backend lives in.

Besides opening the database, the package provides the per-request session: WithSession
runs a function inside a transaction which is committed on success, rolled back on
error or panic, and released in any case.
*/
package csql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/relabs-tech/fanpages/core/logger"
)

// DB encapsulates a standard sql.DB with the schemas it manages
type DB struct {
	*sql.DB
	Schemas []string
}

// ErrNoRows is returned by Scan when QueryRow doesn't return a
// row. In such a case, QueryRow returns a placeholder *Row value that
// defers this error until a Scan.
var ErrNoRows = sql.ErrNoRows

// postgres SQLSTATE codes we care about
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
)

// OpenWithSchemas opens a postgres database and creates the passed schemas if they do
// not exist yet. The password is optional and gets appended to the data source name.
//
// The function panics if the database cannot be reached.
func OpenWithSchemas(dataSourceName, password string, schemas ...string) *DB {
	rlog := logger.Default()
	rlog.Infoln("connecting to postgres database:", dataSourceName)
	if password != "" {
		dataSourceName += " password=" + password
	}
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		panic(err)
	}
	err = db.Ping()
	if err != nil {
		panic(err)
	}
	for _, schema := range schemas {
		rlog.Infoln("selected database schema:", schema)
		_, err = db.Exec(`CREATE schema IF NOT EXISTS ` + schema + `;`)
		if err != nil {
			panic(err)
		}
	}
	return &DB{DB: db, Schemas: schemas}
}

// New wraps an already opened database. No schema is created.
func New(db *sql.DB, schemas ...string) *DB {
	return &DB{DB: db, Schemas: schemas}
}

// ClearSchemas clears all the data contained in the database's schemas.
// Technically this is done by dropping each schema and then recreating it
func (db *DB) ClearSchemas() {
	for _, schema := range db.Schemas {
		if schema == "public" {
			panic("refuse to drop public schema")
		}
		_, err := db.Exec(`DROP SCHEMA IF EXISTS ` + schema + ` CASCADE;
	CREATE schema IF NOT EXISTS ` + schema + `;`)
		if err != nil {
			logger.Default().WithError(err).Errorln("clear schema error:", schema)
		}
	}
}

// WithSession runs fn inside a database transaction. The transaction is committed if fn
// returns nil and rolled back otherwise. A panic inside fn rolls back the transaction
// before it is re-raised. The connection is released in every case.
func (db *DB) WithSession(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cannot begin session: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err = fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			logger.FromContext(ctx).WithError(rerr).Warnln("cannot roll back session")
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("cannot commit session: %w", err)
	}
	return nil
}

// IsForeignKeyViolation returns true if err was caused by a violated foreign key constraint
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, codeForeignKeyViolation)
}

// IsUniqueViolation returns true if err was caused by a violated unique constraint
func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

func hasCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == code
	}
	return false
}
