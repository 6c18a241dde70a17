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
	"net/http"
	"net/url"
	"path"
	"strings"
)

const (
	restfulObjectsRelPrefix = "urn:org.restfulobjects:rels/"
	checkmkRelPrefix        = "urn:com.checkmk:rels/"

	// RelSelf links a representation to its canonical URL.
	RelSelf = "self"
	// RelUpdate is the shorthand for the update relation.
	RelUpdate = ".../update"
	// RelDelete is the shorthand for the delete relation.
	RelDelete = ".../delete"
	// RelValue is the shorthand for the members of a collection.
	RelValue = ".../value"
)

// Link is a hypermedia reference to a follow-up action.
type Link struct {
	DomainType string  `json:"domainType,omitempty"`
	Rel        string  `json:"rel"`
	Href       string  `json:"href"`
	Method     string  `json:"method,omitempty"`
	Type       string  `json:"type,omitempty"`
	Title      *string `json:"title,omitempty"`
}

// RequestDescriptor is a link resolved into something that can be sent.
type RequestDescriptor struct {
	Method string
	Path   string
	Header http.Header
}

// ExpandRelation turns the ".../x" and "cmk/x" shorthands into full relation URNs.
func ExpandRelation(rel string) string {
	switch {
	case strings.HasPrefix(rel, ".../"):
		return restfulObjectsRelPrefix + strings.TrimPrefix(rel, ".../")
	case strings.HasPrefix(rel, "cmk/"):
		return checkmkRelPrefix + strings.TrimPrefix(rel, "cmk/")
	}

	return rel
}

// Matches reports whether the link answers to rel, which may be a shorthand.
// A ".../x" shorthand also matches any relation ending in "/x".
func (l Link) Matches(rel string) bool {
	if l.Rel == rel || l.Rel == ExpandRelation(rel) {
		return true
	}

	if suffix, ok := strings.CutPrefix(rel, "..."); ok {
		return strings.HasSuffix(l.Rel, suffix)
	}

	return false
}

// Resolve converts the link into a request descriptor relative to the server root.
// Absolute hrefs contribute only their path and query, hrefs already under base
// are kept, anything else is joined onto base.
func (l Link) Resolve(base string) (*RequestDescriptor, error) {
	if l.Href == "" {
		return nil, fmt.Errorf("link %q has no href", l.Rel)
	}

	u, err := url.Parse(l.Href)
	if err != nil {
		return nil, fmt.Errorf("parsing href of link %q: %w", l.Rel, err)
	}

	p := u.EscapedPath()

	if !u.IsAbs() && !strings.HasPrefix(p, base+"/") && p != base {
		p = path.Join(base, p)
	}

	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}

	method := strings.ToUpper(l.Method)
	if method == "" {
		method = http.MethodGet
	}

	descriptor := &RequestDescriptor{
		Method: method,
		Path:   p,
		Header: http.Header{},
	}

	if l.Type != "" {
		descriptor.Header.Set("Accept", l.Type)
	}

	return descriptor, nil
}

// DomainObject is the representation returned for a single resource.
type DomainObject struct {
	DomainType string                 `json:"domainType"`
	ID         string                 `json:"id,omitempty"`
	Title      string                 `json:"title,omitempty"`
	Links      []Link                 `json:"links"`
	Members    map[string]interface{} `json:"members,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
	Value      []DomainObject         `json:"value,omitempty"`
}

// FindLink returns the first link matching rel.
func (o *DomainObject) FindLink(rel string) (Link, error) {
	for _, link := range o.Links {
		if link.Matches(rel) {
			return link, nil
		}
	}

	return Link{}, fmt.Errorf("%w: %q", ErrLinkNotFound, rel)
}

// Extension returns a string valued extension attribute, or "" if absent.
func (o *DomainObject) Extension(key string) string {
	if o.Extensions == nil {
		return ""
	}

	s, _ := o.Extensions[key].(string)

	return s
}

// Group extracts the group attributes from the representation.
func (o *DomainObject) Group() Group {
	group := Group{
		Name:  o.Extension("name"),
		Alias: o.Extension("alias"),
	}

	if group.Name == "" {
		group.Name = o.ID
	}

	if group.Alias == "" {
		group.Alias = o.Title
	}

	return group
}
