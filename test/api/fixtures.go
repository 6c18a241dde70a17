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

//nolint:revive,staticcheck // dot imports are standard for Ginkgo/Gomega test code
package api

import (
	"context"
	"math/rand"
	"net/http"
	"strings"

	. "github.com/onsi/ginkgo/v2"

	"github.com/spjmurray/go-util/pkg/set"
)

const (
	randomCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// RandomFieldLength is the length of generated names and aliases.
	RandomFieldLength = 10
)

// AutomationUser is the credential pair of a Checkmk automation user.
type AutomationUser struct {
	Username string
	Secret   string
}

// WithAutomationUser returns the automation user the suite authenticates as.
func WithAutomationUser(config *TestConfig) AutomationUser {
	return AutomationUser{
		Username: config.AutomationUser,
		Secret:   config.AutomationSecret,
	}
}

// NameGenerator produces collision free random group payloads from a seeded source.
type NameGenerator struct {
	seed   int64
	rng    *rand.Rand
	issued set.Set[string]
}

func NewNameGenerator(seed int64) *NameGenerator {
	return &NameGenerator{
		seed:   seed,
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // reproducibility matters, not secrecy
		issued: set.New[string](),
	}
}

// Seed reports the seed so a failing run can be replayed.
func (g *NameGenerator) Seed() int64 {
	return g.seed
}

// RandomString returns size characters drawn from ASCII letters and digits.
func (g *NameGenerator) RandomString(size int) string {
	var b strings.Builder

	b.Grow(size)

	for range size {
		b.WriteByte(randomCharset[g.rng.Intn(len(randomCharset))])
	}

	return b.String()
}

// NewGroup returns a group whose name has not been issued before by this generator.
func (g *NameGenerator) NewGroup() Group {
	name := g.RandomString(RandomFieldLength)

	for g.issued.Contains(name) {
		name = g.RandomString(RandomFieldLength)
	}

	g.issued.Add(name)

	return Group{
		Name:  name,
		Alias: g.RandomString(RandomFieldLength),
	}
}

// CreateGroupWithCleanup creates a group and schedules its deletion when the test ends.
func CreateGroupWithCleanup(client *APIClient, ctx context.Context, kind GroupKind, group Group) *Response {
	resp, err := client.CreateGroup(ctx, kind, group)
	if err != nil {
		panic(err)
	}

	GinkgoWriter.Printf("Created %s group: %s\n", kind, group.Name)

	DeferGroupCleanup(client, ctx, kind, group.Name)

	return resp
}

// DeferGroupCleanup deletes the named group when the test ends, pass or fail.
// Cleanup re-reads the group so it uses the latest ETag, and accepts that the
// test may already have deleted it.
func DeferGroupCleanup(client *APIClient, ctx context.Context, kind GroupKind, name string) {
	DeferCleanup(func() {
		current, err := client.GetGroupByName(ctx, kind, name, 0)
		if err != nil {
			GinkgoWriter.Printf("Warning: Failed to read %s group %s for cleanup: %v\n", kind, name, err)
			return
		}

		if current.StatusCode == http.StatusNotFound {
			return
		}

		etag, err := current.ETag()
		if err != nil {
			GinkgoWriter.Printf("Warning: %s group %s has no ETag, not cleaning up: %v\n", kind, name, err)
			return
		}

		if _, err := client.DeleteGroup(ctx, current, etag, http.StatusNoContent); err != nil {
			GinkgoWriter.Printf("Warning: Failed to delete %s group %s: %v\n", kind, name, err)
		} else {
			GinkgoWriter.Printf("Successfully deleted %s group: %s\n", kind, name)
		}
	})
}
