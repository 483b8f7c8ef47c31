// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/fanpages/core"
	"github.com/relabs-tech/fanpages/core/logger"
)

// notify passes a committed change to the notifier. The change is already
// visible to other callers, so failures are logged and counted but never
// turned into an error response.
func (b *Backend) notify(ctx context.Context, resource string, operation core.Operation, id int64, v interface{}) {
	if b.notifier == nil {
		return
	}
	rlog := logger.FromContext(ctx)
	payload, err := json.Marshal(v)
	if err != nil {
		rlog.WithError(err).Errorf("Error 5770: cannot marshal %s notification", resource)
		b.metrics.notifications.WithLabelValues(resource, string(operation), "error").Inc()
		return
	}
	if err = b.notifier.Notify(ctx, resource, operation, id, payload); err != nil {
		rlog.WithError(err).Errorf("Error 5771: cannot notify %s %s %d", operation, resource, id)
		b.metrics.notifications.WithLabelValues(resource, string(operation), "error").Inc()
		return
	}
	b.metrics.notifications.WithLabelValues(resource, string(operation), "ok").Inc()
}
