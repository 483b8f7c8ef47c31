// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/fanpages/core/logger"
	"github.com/relabs-tech/fanpages/core/schema"
)

// window is the offset/limit window of a list request
type window struct {
	skip  int
	limit int
}

const (
	defaultLimit = 10
	maxLimit     = 100

	// maxID is the largest value of a SERIAL column
	maxID = math.MaxInt32
)

// parseWindow reads skip and limit from the query. Other query parameters are ignored.
func parseWindow(r *http.Request) (window, error) {
	w := window{skip: 0, limit: defaultLimit}
	query := r.URL.Query()
	if value := query.Get("skip"); value != "" {
		skip, err := strconv.Atoi(value)
		if err != nil || skip < 0 {
			return w, fmt.Errorf("parameter 'skip': must be a non-negative integer")
		}
		w.skip = skip
	}
	if value := query.Get("limit"); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil || limit < 1 || limit > maxLimit {
			return w, fmt.Errorf("parameter 'limit': must be an integer between 1 and %d", maxLimit)
		}
		w.limit = limit
	}
	return w, nil
}

// parseID returns the positive integer identifier from the route. Identifiers too
// large for the id columns yield ErrNotFound.
func parseID(r *http.Request) (int64, error) {
	value := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(value, 10, 64)
	switch {
	case errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(value, "-"), err == nil && id > maxID:
		// no row carries an identifier beyond the range of SERIAL
		return 0, ErrNotFound
	case err != nil || id < 1:
		return 0, fmt.Errorf("%w '%s'", errInvalidID, value)
	}
	return id, nil
}

// readBody reads the request body, validates it against schemaID and unmarshals it
// into payload. On failure a response has been written and false is returned.
func (b *Backend) readBody(w http.ResponseWriter, r *http.Request, schemaID string, payload interface{}) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "cannot read body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if err = b.validator.ValidateBytes(body, schemaID); err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			http.Error(w, "invalid payload: "+strings.Join(verr.Violations, "; "), http.StatusBadRequest)
			return false
		}
		// the validator could not even parse the body
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if err = json.Unmarshal(body, payload); err != nil {
		http.Error(w, "invalid payload: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// writeError answers a failed request. Known errors become client errors, everything
// else is logged under code and answered with 500.
func writeError(w http.ResponseWriter, r *http.Request, resource, code string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, resource+" not found", http.StatusNotFound)
	case errors.Is(err, ErrRelatedNotFound), errors.Is(err, ErrInvalidReference),
		errors.Is(err, ErrInvalidPayload), errors.Is(err, errInvalidID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrReferenced):
		http.Error(w, resource+" is still referenced", http.StatusConflict)
	default:
		logger.FromContext(r.Context()).WithError(err).Errorf("%s: %s %s", code, r.Method, resource)
		http.Error(w, code, http.StatusInternalServerError)
	}
}

// writeJSON writes v with status. Successful GET responses carry an Etag and
// honor If-None-Match.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		logger.FromContext(r.Context()).WithError(err).Errorf("Error 5760: cannot marshal response")
		http.Error(w, "Error 5760", http.StatusInternalServerError)
		return
	}
	if r.Method == http.MethodGet && status == http.StatusOK {
		etag := bytesToEtag(jsonData)
		w.Header().Set("Etag", etag)
		if ifNoneMatchFound(r.Header.Get("If-None-Match"), etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(jsonData)
}

// bytesToEtag returns a quoted strong etag for data
func bytesToEtag(data []byte) string {
	return fmt.Sprintf("\"%x\"", md5.Sum(data))
}

// ifNoneMatchFound returns true if etag is found in ifNoneMatch. The format of ifNoneMatch is one
// of the following:
// If-None-Match: "<etag_value>"
// If-None-Match: "<etag_value>", "<etag_value>", ...
// If-None-Match: *
func ifNoneMatchFound(ifNoneMatch, etag string) bool {
	ifNoneMatch = strings.Trim(ifNoneMatch, " ")
	if len(ifNoneMatch) == 0 {
		return false
	}
	if ifNoneMatch == "*" {
		return true
	}
	t := strings.Trim(etag, " \"")
	for _, s := range strings.Split(ifNoneMatch, ",") {
		s = strings.Trim(s, " \"")
		if s == t {
			return true
		}
	}
	return false
}
