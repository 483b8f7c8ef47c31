// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/relabs-tech/fanpages/core"
	"github.com/relabs-tech/fanpages/core/csql"
	"github.com/relabs-tech/fanpages/core/logger"
)

// scanner is implemented by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// resource describes the storage functions of one entity. C is the create/update
// payload, R is the representation returned to the caller.
type resource[C any, R any] struct {
	name      string
	path      string
	schemaID  string
	paginated bool

	// prepare is optional and runs on every create and update payload before the
	// session starts
	prepare func(*C) error

	create func(ctx context.Context, tx *sql.Tx, c *C) (int64, error)
	read   func(ctx context.Context, tx *sql.Tx, id int64) (R, error)
	list   func(ctx context.Context, tx *sql.Tx, w window) ([]R, error)
	update func(ctx context.Context, tx *sql.Tx, id int64, c *C) error
	delete func(ctx context.Context, tx *sql.Tx, id int64) error
}

// affectedOne turns an exec result which touched no row into ErrNotFound
func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

// writeViolation maps a foreign key violation on insert or update
func writeViolation(err error) error {
	if csql.IsForeignKeyViolation(err) {
		return ErrInvalidReference
	}
	return err
}

// deleteViolation maps a foreign key violation on delete
func deleteViolation(err error) error {
	if csql.IsForeignKeyViolation(err) {
		return ErrReferenced
	}
	return err
}

// register adds list, create, read, update and delete routes for the resource.
// Collection routes are served with and without trailing slash.
func (rc *resource[C, R]) register(b *Backend, router *mux.Router) {
	listRoute := rc.path
	itemRoute := rc.path + "/{id}"

	rlog := logger.Default()
	rlog.Debugln("resource:", rc.name)
	rlog.Debugln("  handle routes:", listRoute, "GET,POST")
	rlog.Debugln("  handle routes:", itemRoute, "GET,PUT,DELETE")

	for _, route := range []string{listRoute, listRoute + "/"} {
		router.HandleFunc(route, func(w http.ResponseWriter, r *http.Request) {
			logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
			rc.handleList(b, w, r)
		}).Methods(http.MethodOptions, http.MethodGet)

		router.HandleFunc(route, func(w http.ResponseWriter, r *http.Request) {
			logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
			rc.handleCreate(b, w, r)
		}).Methods(http.MethodOptions, http.MethodPost)
	}

	router.HandleFunc(itemRoute, func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		rc.handleRead(b, w, r)
	}).Methods(http.MethodOptions, http.MethodGet)

	router.HandleFunc(itemRoute, func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		rc.handleUpdate(b, w, r)
	}).Methods(http.MethodOptions, http.MethodPut)

	router.HandleFunc(itemRoute, func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		rc.handleDelete(b, w, r)
	}).Methods(http.MethodOptions, http.MethodDelete)
}

func (rc *resource[C, R]) handleList(b *Backend, w http.ResponseWriter, r *http.Request) {
	win := window{}
	if rc.paginated {
		var err error
		if win, err = parseWindow(r); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	var result []R
	err := b.db.WithSession(r.Context(), func(tx *sql.Tx) (err error) {
		result, err = rc.list(r.Context(), tx, win)
		return err
	})
	if err != nil {
		writeError(w, r, rc.name, "Error 5721", err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (rc *resource[C, R]) handleRead(b *Backend, w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, rc.name, "", err)
		return
	}

	var result R
	err = b.db.WithSession(r.Context(), func(tx *sql.Tx) (err error) {
		result, err = rc.read(r.Context(), tx, id)
		return err
	})
	if err != nil {
		writeError(w, r, rc.name, "Error 5727", err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (rc *resource[C, R]) handleCreate(b *Backend, w http.ResponseWriter, r *http.Request) {
	var payload C
	if !b.readBody(w, r, rc.schemaID, &payload) {
		return
	}
	if rc.prepare != nil {
		if err := rc.prepare(&payload); err != nil {
			writeError(w, r, rc.name, "Error 5730", err)
			return
		}
	}

	ctx := r.Context()
	var (
		id     int64
		result R
	)
	err := b.db.WithSession(ctx, func(tx *sql.Tx) (err error) {
		id, err = rc.create(ctx, tx, &payload)
		if err != nil {
			return writeViolation(err)
		}
		result, err = rc.read(ctx, tx, id)
		return err
	})
	if err != nil {
		writeError(w, r, rc.name, "Error 5731", err)
		return
	}
	b.notify(ctx, rc.name, core.OperationCreate, id, result)
	writeJSON(w, r, http.StatusCreated, result)
}

func (rc *resource[C, R]) handleUpdate(b *Backend, w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, rc.name, "", err)
		return
	}
	var payload C
	if !b.readBody(w, r, rc.schemaID, &payload) {
		return
	}
	if rc.prepare != nil {
		if err := rc.prepare(&payload); err != nil {
			writeError(w, r, rc.name, "Error 5740", err)
			return
		}
	}

	ctx := r.Context()
	var result R
	err = b.db.WithSession(ctx, func(tx *sql.Tx) (err error) {
		if err = rc.update(ctx, tx, id, &payload); err != nil {
			return writeViolation(err)
		}
		result, err = rc.read(ctx, tx, id)
		return err
	})
	if err != nil {
		writeError(w, r, rc.name, "Error 5741", err)
		return
	}
	b.notify(ctx, rc.name, core.OperationUpdate, id, result)
	writeJSON(w, r, http.StatusOK, result)
}

// handleDelete returns the last state of the deleted resource
func (rc *resource[C, R]) handleDelete(b *Backend, w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, rc.name, "", err)
		return
	}

	ctx := r.Context()
	var result R
	err = b.db.WithSession(ctx, func(tx *sql.Tx) (err error) {
		if result, err = rc.read(ctx, tx, id); err != nil {
			return err
		}
		return deleteViolation(rc.delete(ctx, tx, id))
	})
	if err != nil {
		writeError(w, r, rc.name, "Error 5750", err)
		return
	}
	b.notify(ctx, rc.name, core.OperationDelete, id, result)
	writeJSON(w, r, http.StatusOK, result)
}
