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
	"net/url"

	"github.com/oapi-codegen/runtime"
)

// Endpoints contains all API endpoint patterns.
type Endpoints struct {
	site    string
	version string
}

// NewEndpoints creates a new Endpoints instance rooted at the given site and API version.
func NewEndpoints(site, version string) *Endpoints {
	if site == "" {
		site = DefaultSite
	}

	if version == "" {
		version = DefaultAPIVersion
	}

	return &Endpoints{
		site:    site,
		version: version,
	}
}

// Base is the path prefix of every REST API call, e.g. /NO_SITE/check_mk/api/v0.
func (e *Endpoints) Base() string {
	return fmt.Sprintf("/%s/check_mk/api/%s", url.PathEscape(e.site), url.PathEscape(e.version))
}

// Group configuration endpoints.
func (e *Endpoints) GroupCollection(kind GroupKind) (string, error) {
	domainType, err := domainTypeParameter(kind)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/domain-types/%s/collections/all", e.Base(), domainType), nil
}

func (e *Endpoints) GroupObject(kind GroupKind, name string) (string, error) {
	domainType, err := domainTypeParameter(kind)
	if err != nil {
		return "", err
	}

	ident, err := runtime.StyleParamWithLocation("simple", false, "ident", runtime.ParamLocationPath, name)
	if err != nil {
		return "", fmt.Errorf("styling group identifier: %w", err)
	}

	return fmt.Sprintf("%s/objects/%s/%s", e.Base(), domainType, ident), nil
}

// Version endpoint.
func (e *Endpoints) Version() string {
	return e.Base() + "/version"
}

func domainTypeParameter(kind GroupKind) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownGroupKind, string(kind))
	}

	domainType, err := runtime.StyleParamWithLocation("simple", false, "domain_type", runtime.ParamLocationPath, kind.DomainType())
	if err != nil {
		return "", fmt.Errorf("styling domain type: %w", err)
	}

	return domainType, nil
}
