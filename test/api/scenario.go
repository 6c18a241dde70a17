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
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	// StaleETag is deliberately not a token the server could have issued.
	StaleETag = "foo bar"

	// UpdatedSuffix is appended to the group name by the update step.
	UpdatedSuffix = " updated"
)

var (
	// ErrETagUnchanged means a successful update did not produce a new version token.
	ErrETagUnchanged = errors.New("etag did not change after update")

	// ErrGroupModified means a rejected update still changed the stored group.
	ErrGroupModified = errors.New("group was modified by a rejected update")

	// ErrStepOrder means a step ran before the one it depends on.
	ErrStepOrder = errors.New("lifecycle step run out of order")
)

// StepResult records the outcome of one lifecycle step.
type StepResult struct {
	Name     string
	Duration time.Duration
	Err      error
}

// LifecycleReport is the outcome of a full lifecycle run.
type LifecycleReport struct {
	Kind        GroupKind
	Group       Group
	CreatedETag string
	UpdatedETag string
	Steps       []StepResult
}

// OK is true when every step executed and passed.
func (r *LifecycleReport) OK() bool {
	for _, step := range r.Steps {
		if step.Err != nil {
			return false
		}
	}

	return len(r.Steps) > 0
}

// GroupLifecycle walks one group of one kind through create, read, a rejected
// update, an accepted update and delete. Steps must be called in order, each
// one works from the response of the previous step.
type GroupLifecycle struct {
	client *APIClient
	kind   GroupKind
	group  Group

	created  *Response
	current  *Response
	updated  *Response
	original Group

	createdETag string
	updatedETag string
}

// NewGroupLifecycle prepares a lifecycle for a freshly generated group.
func NewGroupLifecycle(client *APIClient, kind GroupKind, names *NameGenerator) *GroupLifecycle {
	return &GroupLifecycle{
		client: client,
		kind:   kind,
		group:  names.NewGroup(),
	}
}

func (l *GroupLifecycle) Kind() GroupKind {
	return l.kind
}

func (l *GroupLifecycle) Group() Group {
	return l.group
}

func (l *GroupLifecycle) CreatedETag() string {
	return l.createdETag
}

func (l *GroupLifecycle) UpdatedETag() string {
	return l.updatedETag
}

// Create posts the group to its collection and expects a self link and an ETag.
func (l *GroupLifecycle) Create(ctx context.Context) error {
	resp, err := l.client.CreateGroup(ctx, l.kind, l.group)
	if err != nil {
		return err
	}

	if _, err := resp.Link(RelSelf); err != nil {
		return fmt.Errorf("create response: %w", err)
	}

	etag, err := resp.ETag()
	if err != nil {
		return fmt.Errorf("create response: %w", err)
	}

	l.created = resp
	l.createdETag = etag

	return nil
}

// Fetch follows the self link to the canonical representation.
func (l *GroupLifecycle) Fetch(ctx context.Context) error {
	if l.created == nil {
		return fmt.Errorf("%w: fetch before create", ErrStepOrder)
	}

	resp, err := l.client.GetGroup(ctx, l.created, http.StatusOK)
	if err != nil {
		return err
	}

	etag, err := resp.ETag()
	if err != nil {
		return fmt.Errorf("self response: %w", err)
	}

	l.current = resp
	l.createdETag = etag

	if resp.Object != nil {
		l.original = resp.Object.Group()
	}

	return nil
}

// RejectStaleUpdate sends the update with a wrong If-Match, expects 412, and
// re-reads the group to prove nothing changed.
func (l *GroupLifecycle) RejectStaleUpdate(ctx context.Context) error {
	if l.current == nil {
		return fmt.Errorf("%w: update before fetch", ErrStepOrder)
	}

	if _, err := l.client.UpdateGroup(ctx, l.current, l.group.Renamed(UpdatedSuffix), StaleETag, http.StatusPreconditionFailed); err != nil {
		return err
	}

	resp, err := l.client.GetGroup(ctx, l.current, http.StatusOK)
	if err != nil {
		return err
	}

	etag, err := resp.ETag()
	if err != nil {
		return fmt.Errorf("self response: %w", err)
	}

	if etag != l.createdETag {
		return fmt.Errorf("%w: etag moved from %s to %s", ErrGroupModified, l.createdETag, etag)
	}

	if resp.Object != nil {
		if stored := resp.Object.Group(); stored != l.original {
			return fmt.Errorf("%w: stored %+v, expected %+v", ErrGroupModified, stored, l.original)
		}
	}

	l.current = resp

	return nil
}

// Update retries the rename with the current ETag and expects a new one.
func (l *GroupLifecycle) Update(ctx context.Context) error {
	if l.current == nil {
		return fmt.Errorf("%w: update before fetch", ErrStepOrder)
	}

	etag, err := l.current.ETag()
	if err != nil {
		return err
	}

	resp, err := l.client.UpdateGroup(ctx, l.current, l.group.Renamed(UpdatedSuffix), etag, http.StatusOK)
	if err != nil {
		return err
	}

	updatedETag, err := resp.ETag()
	if err != nil {
		return fmt.Errorf("update response: %w", err)
	}

	if updatedETag == etag {
		return fmt.Errorf("%w: still %s", ErrETagUnchanged, etag)
	}

	l.updated = resp
	l.updatedETag = updatedETag

	return nil
}

// Delete follows the delete link with the latest ETag and expects no content.
func (l *GroupLifecycle) Delete(ctx context.Context) error {
	if l.updated == nil {
		return fmt.Errorf("%w: delete before update", ErrStepOrder)
	}

	if _, err := l.client.DeleteGroup(ctx, l.updated, l.updatedETag, http.StatusNoContent); err != nil {
		return err
	}

	return nil
}

// VerifyGone checks the self link no longer resolves.
func (l *GroupLifecycle) VerifyGone(ctx context.Context) error {
	if l.updated == nil {
		return fmt.Errorf("%w: verify before delete", ErrStepOrder)
	}

	if _, err := l.client.GetGroup(ctx, l.updated, http.StatusNotFound); err != nil {
		return err
	}

	return nil
}

// Run executes every step in order, stopping at the first failure.
func (l *GroupLifecycle) Run(ctx context.Context) (*LifecycleReport, error) {
	report := &LifecycleReport{
		Kind:  l.kind,
		Group: l.group,
	}

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"create", l.Create},
		{"fetch self", l.Fetch},
		{"reject stale update", l.RejectStaleUpdate},
		{"update", l.Update},
		{"delete", l.Delete},
		{"verify gone", l.VerifyGone},
	}

	for _, step := range steps {
		start := time.Now()
		err := step.fn(ctx)

		report.Steps = append(report.Steps, StepResult{
			Name:     step.name,
			Duration: time.Since(start),
			Err:      err,
		})

		report.CreatedETag = l.createdETag
		report.UpdatedETag = l.updatedETag

		if err != nil {
			return report, fmt.Errorf("%s group lifecycle: %s: %w", l.kind, step.name, err)
		}
	}

	return report, nil
}
