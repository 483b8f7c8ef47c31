// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/relabs-tech/fanpages/core/logger"
)

var (
	// Version is the version of the current build. It is set with
	// -ldflags "-X github.com/relabs-tech/fanpages/core/backend.Version=..."
	Version = "unset"
)

// apiIdentification is returned by the root route
const apiIdentification = "rol_fan_page - fan_page - persona - rol - usuario"

func (b *Backend) handleVersion(router *mux.Router) {
	logger.Default().Debugln("version")
	logger.Default().Debugln("  handle version route: /version GET")
	router.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string]string{"version": Version})
	}).Methods(http.MethodOptions, http.MethodGet)
}

func (b *Backend) handleRoot(router *mux.Router) {
	logger.Default().Debugln("  handle root route: / GET")
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string]string{"API": apiIdentification})
	}).Methods(http.MethodOptions, http.MethodGet)
}
