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
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
)

// Response is a completed API call with its body already read and, for JSON
// payloads, decoded into a domain object.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Object     *DomainObject
	TraceID    string
}

func newResponse(resp *http.Response, body []byte, traceID string) (*Response, error) {
	r := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		TraceID:    traceID,
	}

	if len(body) == 0 || !isJSON(resp.Header.Get("Content-Type")) {
		return r, nil
	}

	object := &DomainObject{}
	if err := json.Unmarshal(body, object); err != nil {
		return r, fmt.Errorf("unmarshaling response: %w", err)
	}

	r.Object = object

	return r, nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == "application/json" || mediaType == "application/problem+json"
}

// ETag returns the version token of the representation.
func (r *Response) ETag() (string, error) {
	etag := r.Header.Get("ETag")
	if etag == "" {
		return "", ErrMissingETag
	}

	return etag, nil
}

// Link returns the link for rel, which may be a shorthand like ".../update".
func (r *Response) Link(rel string) (Link, error) {
	if r.Object == nil {
		return Link{}, fmt.Errorf("%w: %q (response has no JSON body)", ErrLinkNotFound, rel)
	}

	return r.Object.FindLink(rel)
}

// Relations indexes every link in the response by relation name.
func (r *Response) Relations() map[string]Link {
	relations := map[string]Link{}

	if r.Object == nil {
		return relations
	}

	for _, link := range r.Object.Links {
		if _, ok := relations[link.Rel]; !ok {
			relations[link.Rel] = link
		}
	}

	return relations
}
