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
	"errors"
	"regexp"
)

var ErrInvalidGroupIdent = errors.New("invalid name: must consist of ASCII letters, digits, '-' or '_', and must not be empty")

var groupIdentValidationRegex = regexp.MustCompile("^[-a-zA-Z0-9_]+$")

// GroupIdent is a group name as accepted on creation.
type GroupIdent struct {
	Value string
}

func (n *GroupIdent) UnmarshalText(text []byte) error {
	if !groupIdentValidationRegex.Match(text) {
		return ErrInvalidGroupIdent
	}

	*n = GroupIdent{
		Value: string(text),
	}

	return nil
}
