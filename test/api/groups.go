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
	"fmt"
	"strings"
)

// GroupKind selects which group configuration collection a record lives in.
type GroupKind string

const (
	HostGroup    GroupKind = "host"
	ContactGroup GroupKind = "contact"
	ServiceGroup GroupKind = "service"
)

// AllGroupKinds returns every supported kind in a stable order.
func AllGroupKinds() []GroupKind {
	return []GroupKind{HostGroup, ContactGroup, ServiceGroup}
}

// ParseGroupKind converts user input into a GroupKind.
func ParseGroupKind(s string) (GroupKind, error) {
	kind := GroupKind(strings.ToLower(strings.TrimSpace(s)))
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownGroupKind, s)
	}

	return kind, nil
}

func (k GroupKind) Valid() bool {
	switch k {
	case HostGroup, ContactGroup, ServiceGroup:
		return true
	}

	return false
}

// DomainType is the REST domain type name, e.g. host_group_config.
func (k GroupKind) DomainType() string {
	return string(k) + "_group_config"
}

func (k GroupKind) String() string {
	return string(k)
}

// Group is the writable payload of a group configuration.
type Group struct {
	Name  string `json:"name"`
	Alias string `json:"alias"`
}

// Renamed returns a copy of the group with suffix appended to the name.
func (g Group) Renamed(suffix string) Group {
	g.Name += suffix

	return g
}
