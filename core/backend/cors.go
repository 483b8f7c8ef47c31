// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"net/http"

	"github.com/gorilla/handlers"

	"github.com/relabs-tech/fanpages/core/logger"
)

// handleCORS allows every origin. Preflight requests are answered by the
// middleware and never reach a handler.
func (b *Backend) handleCORS() {
	logger.Default().Debugln("cors: allow all origins")
	b.router.Use(handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		}),
		handlers.AllowedHeaders([]string{
			"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization",
			"If-None-Match", logger.RequestIDHeader,
		}),
		handlers.ExposedHeaders([]string{"Etag", logger.RequestIDHeader}),
		handlers.MaxAge(86400),
		handlers.OptionStatusCode(http.StatusNoContent),
	))
}
