// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"github.com/gorilla/handlers"
)

// handleCompression gzips responses for clients which accept it
func (b *Backend) handleCompression() {
	b.router.Use(handlers.CompressHandler)
}
