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
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var openapiDocument []byte

var ErrSchemaNotFound = errors.New("schema not found")

// Schema validates response bodies against the representations the API documents.
type Schema struct {
	doc *openapi3.T
}

// LoadSchema loads and validates the embedded OpenAPI document.
func LoadSchema(ctx context.Context) (*Schema, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(openapiDocument)
	if err != nil {
		return nil, fmt.Errorf("loading openapi document: %w", err)
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validating openapi document: %w", err)
	}

	return &Schema{doc: doc}, nil
}

// ValidateDomainObject checks a raw JSON body is a well formed domain object.
func (s *Schema) ValidateDomainObject(body []byte) error {
	return s.validate("DomainObject", body)
}

// ValidateLink checks a raw JSON body is a well formed link.
func (s *Schema) ValidateLink(body []byte) error {
	return s.validate("Link", body)
}

func (s *Schema) validate(name string, body []byte) error {
	ref, ok := s.doc.Components.Schemas[name]
	if !ok || ref.Value == nil {
		return fmt.Errorf("%w: %s", ErrSchemaNotFound, name)
	}

	var value interface{}
	if err := json.Unmarshal(body, &value); err != nil {
		return fmt.Errorf("unmarshaling %s: %w", name, err)
	}

	if err := ref.Value.VisitJSON(value); err != nil {
		return fmt.Errorf("%s does not match schema: %w", name, err)
	}

	return nil
}
