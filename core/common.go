// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package core

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
)

// Operation represents a backend storage operation, one of Create, Read, Update, Delete, List
type Operation string

// all supported database operations
const (
	OperationCreate Operation = "create"
	OperationRead   Operation = "read"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
	OperationList   Operation = "list"
)

// UnmarshalJSON is a custom JSON unmarshaller
func (o *Operation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*o = Operation(s)
	switch *o {
	case OperationCreate, OperationRead, OperationUpdate, OperationDelete, OperationList:
		return nil
	default:
		return fmt.Errorf("%s is not valid Operation", s)
	}
}

// Notifier is an interface to receive notifications about committed changes.
//
// The payload is the JSON representation of the resource as it was returned to the
// caller. For deletions this is the last known state.
type Notifier interface {
	Notify(ctx context.Context, resource string, operation Operation, resourceID int64, payload []byte) error
}

// NotifierFunc adapts a plain function to the Notifier interface
type NotifierFunc func(ctx context.Context, resource string, operation Operation, resourceID int64, payload []byte) error

// Notify calls f
func (f NotifierFunc) Notify(ctx context.Context, resource string, operation Operation, resourceID int64, payload []byte) error {
	return f(ctx, resource, operation, resourceID, payload)
}
