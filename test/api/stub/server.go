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

// Package stub is an in-memory stand-in for the Checkmk group configuration
// endpoints. It models only what the group lifecycle asserts: bearer
// authentication, hypermedia links and If-Match preconditions.
package stub

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nscaledev/checkmk-api-tests/test/api"
)

// Options define the site the stub pretends to be and the credential it accepts.
type Options struct {
	Site     string
	Version  string
	Username string
	Secret   string
}

type Handler struct {
	store     *Store
	options   Options
	endpoints *api.Endpoints
}

// NewServer returns a router serving the group configuration endpoints.
func NewServer(options Options) http.Handler {
	return NewServerWithStore(options, NewStore())
}

// NewServerWithStore allows tests to inspect or seed the backing store.
func NewServerWithStore(options Options, store *Store) http.Handler {
	h := &Handler{
		store:     store,
		options:   options,
		endpoints: api.NewEndpoints(options.Site, options.Version),
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusNotFound, "Not Found", "no such endpoint: "+r.URL.Path)
	})

	router.Route(h.endpoints.Base(), func(r chi.Router) {
		r.Use(h.authenticate)
		r.Post("/domain-types/{domainType}/collections/all", h.createGroup)
		r.Get("/domain-types/{domainType}/collections/all", h.listGroups)
		r.Get("/objects/{domainType}/{ident}", h.getGroup)
		r.Put("/objects/{domainType}/{ident}", h.updateGroup)
		r.Delete("/objects/{domainType}/{ident}", h.deleteGroup)
	})

	return router
}

func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.options.Username != "" && r.Header.Get("Authorization") != "Bearer "+h.options.Username+" "+h.options.Secret {
			writeProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid automation user credentials")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) setUncacheable(w http.ResponseWriter) {
	w.Header().Add("Cache-Control", "no-cache")
}

// kind resolves the domain type path parameter, writing a 404 on failure.
func (h *Handler) kind(w http.ResponseWriter, r *http.Request) (api.GroupKind, bool) {
	name, ok := strings.CutSuffix(chi.URLParam(r, "domainType"), "_group_config")
	if !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", "unknown domain type")
		return "", false
	}

	kind, err := api.ParseGroupKind(name)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
		return "", false
	}

	return kind, true
}

type createRequest struct {
	Name  GroupIdent `json:"name"`
	Alias string     `json:"alias"`
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}

	request := &createRequest{}

	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	if request.Name.Value == "" {
		writeProblem(w, http.StatusBadRequest, "Bad Request", ErrInvalidGroupIdent.Error())
		return
	}

	group := api.Group{Name: request.Name.Value, Alias: request.Alias}

	stored, etag, err := h.store.Create(kind, request.Name.Value, group)
	if err != nil {
		handleError(w, err)
		return
	}

	h.writeGroup(w, r, http.StatusOK, kind, request.Name.Value, stored, etag)
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}

	idents, groups := h.store.List(kind)

	collection, err := h.endpoints.GroupCollection(kind)
	if err != nil {
		handleError(w, err)
		return
	}

	result := &api.DomainObject{
		DomainType: kind.DomainType(),
		ID:         "all",
		Links: []api.Link{
			link(r, "self", collection, http.MethodGet),
		},
		Value: make([]api.DomainObject, 0, len(idents)),
	}

	for i, ident := range idents {
		object, err := h.domainObject(r, kind, ident, groups[i])
		if err != nil {
			handleError(w, err)
			return
		}

		result.Value = append(result.Value, *object)
	}

	h.setUncacheable(w)
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}

	ident := chi.URLParam(r, "ident")

	group, etag, err := h.store.Get(kind, ident)
	if err != nil {
		handleError(w, err)
		return
	}

	h.writeGroup(w, r, http.StatusOK, kind, ident, group, etag)
}

func (h *Handler) updateGroup(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}

	request := &api.Group{}

	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	ident := chi.URLParam(r, "ident")

	group, etag, err := h.store.Update(kind, ident, r.Header.Get("If-Match"), *request)
	if err != nil {
		handleError(w, err)
		return
	}

	h.writeGroup(w, r, http.StatusOK, kind, ident, group, etag)
}

func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(kind, chi.URLParam(r, "ident"), r.Header.Get("If-Match")); err != nil {
		handleError(w, err)
		return
	}

	h.setUncacheable(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeGroup(w http.ResponseWriter, r *http.Request, status int, kind api.GroupKind, ident string, group api.Group, etag string) {
	object, err := h.domainObject(r, kind, ident, group)
	if err != nil {
		handleError(w, err)
		return
	}

	w.Header().Set("ETag", etag)
	h.setUncacheable(w)
	writeJSON(w, status, object)
}

func (h *Handler) domainObject(r *http.Request, kind api.GroupKind, ident string, group api.Group) (*api.DomainObject, error) {
	self, err := h.endpoints.GroupObject(kind, ident)
	if err != nil {
		return nil, err
	}

	return &api.DomainObject{
		DomainType: kind.DomainType(),
		ID:         ident,
		Title:      group.Alias,
		Members:    map[string]interface{}{},
		Extensions: map[string]interface{}{
			"name":  group.Name,
			"alias": group.Alias,
		},
		Links: []api.Link{
			link(r, "self", self, http.MethodGet),
			link(r, "urn:org.restfulobjects:rels/update", self, http.MethodPut),
			link(r, "urn:org.restfulobjects:rels/delete", self, http.MethodDelete),
		},
	}, nil
}

// link renders an absolute href the way the real site does.
func link(r *http.Request, rel, path, method string) api.Link {
	return api.Link{
		DomainType: "link",
		Rel:        rel,
		Href:       "http://" + r.Host + path,
		Method:     method,
		Type:       "application/json",
	}
}

func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrExists):
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, ErrPreconditionRequired):
		writeProblem(w, http.StatusPreconditionRequired, "Precondition Required", err.Error())
	case errors.Is(err, ErrPreconditionFailed):
		writeProblem(w, http.StatusPreconditionFailed, "Precondition Failed", err.Error())
	default:
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}
}

type problem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(&problem{Title: title, Status: status, Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(body)
}
