// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist
	ErrNotFound = errors.New("not found")

	// ErrRelatedNotFound is returned when an assignment refers to a person, fan page
	// or role which does not exist. The request itself is malformed, hence this is a
	// client error and not a missing resource.
	ErrRelatedNotFound = errors.New("related entity not found")

	// ErrInvalidReference is returned when the database rejects a write because a
	// foreign key points nowhere
	ErrInvalidReference = errors.New("referenced resource does not exist")

	// ErrReferenced is returned when a resource cannot be deleted because other
	// resources still refer to it
	ErrReferenced = errors.New("resource is still referenced")

	// ErrInvalidPayload is returned when a payload passes the schema but still
	// cannot be stored
	ErrInvalidPayload = errors.New("invalid payload")

	errInvalidID = errors.New("invalid identifier")
)
