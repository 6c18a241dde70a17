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

package stub

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/nscaledev/checkmk-api-tests/test/api"
)

var (
	ErrNotFound             = errors.New("group not found")
	ErrExists               = errors.New("group already exists")
	ErrPreconditionRequired = errors.New("if-match header required")
	ErrPreconditionFailed   = errors.New("etag mismatch")
)

type record struct {
	ident string
	group api.Group
}

// etag hashes the stored content, so every content change yields a new token.
func (r *record) etag() string {
	sum := sha256.Sum256([]byte(r.group.Name + "\x00" + r.group.Alias))

	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// Store holds group configurations per kind.
type Store struct {
	lock   sync.Mutex
	groups map[api.GroupKind]map[string]*record
}

func NewStore() *Store {
	groups := map[api.GroupKind]map[string]*record{}

	for _, kind := range api.AllGroupKinds() {
		groups[kind] = map[string]*record{}
	}

	return &Store{
		groups: groups,
	}
}

func (s *Store) Create(kind api.GroupKind, ident string, group api.Group) (api.Group, string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.groups[kind][ident]; ok {
		return api.Group{}, "", fmt.Errorf("%w: %s", ErrExists, ident)
	}

	r := &record{ident: ident, group: group}
	s.groups[kind][ident] = r

	return r.group, r.etag(), nil
}

func (s *Store) Get(kind api.GroupKind, ident string) (api.Group, string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	r, ok := s.groups[kind][ident]
	if !ok {
		return api.Group{}, "", fmt.Errorf("%w: %s", ErrNotFound, ident)
	}

	return r.group, r.etag(), nil
}

// List returns idents and groups sorted by ident.
func (s *Store) List(kind api.GroupKind) ([]string, []api.Group) {
	s.lock.Lock()
	defer s.lock.Unlock()

	idents := make([]string, 0, len(s.groups[kind]))

	for ident := range s.groups[kind] {
		idents = append(idents, ident)
	}

	slices.Sort(idents)

	groups := make([]api.Group, len(idents))

	for i, ident := range idents {
		groups[i] = s.groups[kind][ident].group
	}

	return idents, groups
}

// Update applies the non-empty fields of group if ifMatch names the current version.
func (s *Store) Update(kind api.GroupKind, ident, ifMatch string, group api.Group) (api.Group, string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	r, err := s.checkPrecondition(kind, ident, ifMatch)
	if err != nil {
		return api.Group{}, "", err
	}

	if group.Name != "" {
		r.group.Name = group.Name
	}

	if group.Alias != "" {
		r.group.Alias = group.Alias
	}

	return r.group, r.etag(), nil
}

// Delete removes the group if ifMatch names the current version.
func (s *Store) Delete(kind api.GroupKind, ident, ifMatch string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, err := s.checkPrecondition(kind, ident, ifMatch); err != nil {
		return err
	}

	delete(s.groups[kind], ident)

	return nil
}

// checkPrecondition must be called with the lock held.
func (s *Store) checkPrecondition(kind api.GroupKind, ident, ifMatch string) (*record, error) {
	r, ok := s.groups[kind][ident]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ident)
	}

	if strings.TrimSpace(ifMatch) == "" {
		return nil, ErrPreconditionRequired
	}

	current := r.etag()

	for _, candidate := range strings.Split(ifMatch, ",") {
		candidate = strings.TrimSpace(candidate)

		if candidate == "*" || candidate == current {
			return r, nil
		}
	}

	return nil, fmt.Errorf("%w: got %s", ErrPreconditionFailed, ifMatch)
}
