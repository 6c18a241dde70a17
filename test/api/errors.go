/*
Copyright 2024-2025 the Unikorn Authors.
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"errors"
	"fmt"
)

var (
	// ErrLinkNotFound is returned when a response carries no link with the requested relation.
	ErrLinkNotFound = errors.New("link not found")

	// ErrMissingETag is returned when a response that must be versioned has no ETag header.
	ErrMissingETag = errors.New("response has no ETag header")

	// ErrUnknownGroupKind is returned for group kinds other than host, contact or service.
	ErrUnknownGroupKind = errors.New("unknown group kind")

	// ErrMissingConfig is returned when required configuration is not set.
	ErrMissingConfig = errors.New("missing required configuration")
)

// StatusError is returned when the server answers with a status other than the expected one.
type StatusError struct {
	Method   string
	Path     string
	Expected int
	Actual   int
	Body     string
	TraceID  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: expected %d, got %d, body: %s (trace ID: %s)", e.Expected, e.Actual, e.Body, e.TraceID)
}

// IsStatus reports whether err is a StatusError carrying the given actual status.
func IsStatus(err error, status int) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}

	return statusErr.Actual == status
}
