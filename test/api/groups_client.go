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
	"context"
	"fmt"
	"net/http"
)

// CreateGroup creates a new group configuration of the given kind.
func (c *APIClient) CreateGroup(ctx context.Context, kind GroupKind, group Group) (*Response, error) {
	path, err := c.endpoints.GroupCollection(kind)
	if err != nil {
		return nil, err
	}

	resp, err := c.CallMethod(ctx, Call{
		Method:         http.MethodPost,
		Path:           path,
		Body:           group,
		ContentType:    "application/json",
		ExpectedStatus: http.StatusOK,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s group: %w", kind, err)
	}

	return resp, nil
}

// GetGroup follows the self link of a previous group response.
func (c *APIClient) GetGroup(ctx context.Context, resp *Response, expectedStatus int) (*Response, error) {
	current, err := c.FollowLink(ctx, resp, RelSelf, Call{
		ExpectedStatus: expectedStatus,
	})
	if err != nil {
		return nil, fmt.Errorf("getting group: %w", err)
	}

	return current, nil
}

// GetGroupByName reads a group by its identifier without a prior response.
func (c *APIClient) GetGroupByName(ctx context.Context, kind GroupKind, name string, expectedStatus int) (*Response, error) {
	path, err := c.endpoints.GroupObject(kind, name)
	if err != nil {
		return nil, err
	}

	resp, err := c.CallMethod(ctx, Call{
		Method:         http.MethodGet,
		Path:           path,
		ExpectedStatus: expectedStatus,
	})
	if err != nil {
		return nil, fmt.Errorf("getting %s group '%s': %w", kind, name, err)
	}

	return resp, nil
}

// ListGroups lists every group configuration of the given kind.
func (c *APIClient) ListGroups(ctx context.Context, kind GroupKind) ([]Group, error) {
	path, err := c.endpoints.GroupCollection(kind)
	if err != nil {
		return nil, err
	}

	resp, err := c.CallMethod(ctx, Call{
		Method:         http.MethodGet,
		Path:           path,
		ExpectedStatus: http.StatusOK,
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s groups: %w", kind, err)
	}

	if resp.Object == nil {
		return nil, fmt.Errorf("listing %s groups: response has no JSON body", kind)
	}

	groups := make([]Group, 0, len(resp.Object.Value))

	for i := range resp.Object.Value {
		groups = append(groups, resp.Object.Value[i].Group())
	}

	return groups, nil
}

// UpdateGroup follows the update link of a previous response with the given precondition.
func (c *APIClient) UpdateGroup(ctx context.Context, resp *Response, group Group, ifMatch string, expectedStatus int) (*Response, error) {
	updated, err := c.FollowLink(ctx, resp, RelUpdate, Call{
		Body:           group,
		Headers:        ifMatchHeader(ifMatch),
		ContentType:    "application/json",
		ExpectedStatus: expectedStatus,
	})
	if err != nil {
		return nil, fmt.Errorf("updating group: %w", err)
	}

	return updated, nil
}

// DeleteGroup follows the delete link of a previous response with the given precondition.
func (c *APIClient) DeleteGroup(ctx context.Context, resp *Response, ifMatch string, expectedStatus int) (*Response, error) {
	deleted, err := c.FollowLink(ctx, resp, RelDelete, Call{
		Headers:        ifMatchHeader(ifMatch),
		ContentType:    "application/json",
		ExpectedStatus: expectedStatus,
	})
	if err != nil {
		return nil, fmt.Errorf("deleting group: %w", err)
	}

	return deleted, nil
}

// ifMatchHeader omits the header entirely for an empty token.
func ifMatchHeader(ifMatch string) map[string]string {
	if ifMatch == "" {
		return nil
	}

	return map[string]string{"If-Match": ifMatch}
}
