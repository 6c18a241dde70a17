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

package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive
	. "github.com/onsi/gomega"    //nolint:revive
	"github.com/onsi/gomega/ghttp"

	"github.com/nscaledev/checkmk-api-tests/test/api"
	"github.com/nscaledev/checkmk-api-tests/test/api/stub"
)

var _ = Describe("Group Lifecycle", func() {
	var (
		store  *stub.Store
		config *api.TestConfig
		client *api.APIClient
		names  *api.NameGenerator
		ctx    context.Context
	)

	BeforeEach(func() {
		store = stub.NewStore()

		server := httptest.NewServer(stub.NewServerWithStore(stub.Options{
			Username: "automation",
			Secret:   "secret",
		}, store))
		DeferCleanup(server.Close)

		config = &api.TestConfig{
			BaseURL:          server.URL,
			AutomationUser:   "automation",
			AutomationSecret: "secret",
			RequestTimeout:   5 * time.Second,
		}
		client = api.NewAPIClientWithConfig(config)
		names = api.NewNameGenerator(GinkgoRandomSeed())
		ctx = context.Background()
	})

	DescribeTable("should complete every step",
		func(kind api.GroupKind) {
			lifecycle := api.NewGroupLifecycle(client, kind, names)

			report, err := lifecycle.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.OK()).To(BeTrue())
			Expect(report.Kind).To(Equal(kind))
			Expect(report.Steps).To(HaveLen(6))
			Expect(report.CreatedETag).NotTo(BeEmpty())
			Expect(report.UpdatedETag).NotTo(BeEmpty())
			Expect(report.UpdatedETag).NotTo(Equal(report.CreatedETag))

			idents, _ := store.List(kind)
			Expect(idents).To(BeEmpty())
		},
		Entry("for host groups", api.HostGroup),
		Entry("for contact groups", api.ContactGroup),
		Entry("for service groups", api.ServiceGroup),
	)

	It("should keep the group intact across a stale update", func() {
		lifecycle := api.NewGroupLifecycle(client, api.HostGroup, names)
		group := lifecycle.Group()

		By("creating the group")
		Expect(lifecycle.Create(ctx)).To(Succeed())

		By("following the self link")
		Expect(lifecycle.Fetch(ctx)).To(Succeed())

		By("updating with a stale ETag")
		Expect(lifecycle.RejectStaleUpdate(ctx)).To(Succeed())

		stored, etag, err := store.Get(api.HostGroup, group.Name)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored).To(Equal(group))
		Expect(etag).To(Equal(lifecycle.CreatedETag()))

		By("updating with the current ETag")
		Expect(lifecycle.Update(ctx)).To(Succeed())

		stored, etag, err = store.Get(api.HostGroup, group.Name)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Name).To(Equal(group.Name + " updated"))
		Expect(stored.Alias).To(Equal(group.Alias))
		Expect(etag).To(Equal(lifecycle.UpdatedETag()))

		By("deleting the group")
		Expect(lifecycle.Delete(ctx)).To(Succeed())
		Expect(lifecycle.VerifyGone(ctx)).To(Succeed())

		_, err = client.GetGroupByName(ctx, api.HostGroup, group.Name, http.StatusNotFound)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should refuse steps run out of order", func() {
		lifecycle := api.NewGroupLifecycle(client, api.ContactGroup, names)

		Expect(lifecycle.Fetch(ctx)).To(MatchError(api.ErrStepOrder))
		Expect(lifecycle.RejectStaleUpdate(ctx)).To(MatchError(api.ErrStepOrder))
		Expect(lifecycle.Update(ctx)).To(MatchError(api.ErrStepOrder))
		Expect(lifecycle.Delete(ctx)).To(MatchError(api.ErrStepOrder))
		Expect(lifecycle.VerifyGone(ctx)).To(MatchError(api.ErrStepOrder))
	})

	It("should stop at the first failing step", func() {
		client.SetAuthorization("automation", "wrong")

		report, err := api.NewGroupLifecycle(client, api.ServiceGroup, names).Run(ctx)
		Expect(api.IsStatus(err, http.StatusUnauthorized)).To(BeTrue())
		Expect(report.OK()).To(BeFalse())
		Expect(report.Steps).To(HaveLen(1))
		Expect(report.Steps[0].Name).To(Equal("create"))
	})

	It("should require a precondition on update", func() {
		group := names.NewGroup()
		created := api.CreateGroupWithCleanup(client, ctx, api.HostGroup, group)

		_, err := client.UpdateGroup(ctx, created, group.Renamed(api.UpdatedSuffix), "", http.StatusPreconditionRequired)
		Expect(err).NotTo(HaveOccurred())

		_, err = client.UpdateGroup(ctx, created, group.Renamed(api.UpdatedSuffix), "", http.StatusOK)
		Expect(api.IsStatus(err, http.StatusPreconditionRequired)).To(BeTrue())
	})

	It("should list created groups", func() {
		group := names.NewGroup()
		api.CreateGroupWithCleanup(client, ctx, api.ServiceGroup, group)

		groups, err := client.ListGroups(ctx, api.ServiceGroup)
		Expect(err).NotTo(HaveOccurred())
		Expect(groups).To(ContainElement(group))
	})

	It("should validate stub responses against the schema", func() {
		schema, err := api.LoadSchema(ctx)
		Expect(err).NotTo(HaveOccurred())

		validating := api.NewAPIClientWithConfig(config, api.WithSchemaValidation(schema))

		report, err := api.NewGroupLifecycle(validating, api.ContactGroup, names).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.OK()).To(BeTrue())
	})

	Context("When cleaning up", func() {
		It("should delete groups left behind", func() {
			// Registered first, so it runs after the fixture's cleanup.
			DeferCleanup(func() {
				idents, _ := store.List(api.HostGroup)
				Expect(idents).To(BeEmpty())
			})

			group := names.NewGroup()
			created := api.CreateGroupWithCleanup(client, ctx, api.HostGroup, group)

			etag, err := created.ETag()
			Expect(err).NotTo(HaveOccurred())

			_, err = client.UpdateGroup(ctx, created, group.Renamed(api.UpdatedSuffix), etag, http.StatusOK)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should tolerate groups the test already deleted", func() {
			group := names.NewGroup()
			created := api.CreateGroupWithCleanup(client, ctx, api.HostGroup, group)

			etag, err := created.ETag()
			Expect(err).NotTo(HaveOccurred())

			_, err = client.DeleteGroup(ctx, created, etag, http.StatusNoContent)
			Expect(err).NotTo(HaveOccurred())
		})
	})
})

var _ = Describe("Group Lifecycle against a misbehaving server", func() {
	var (
		server *ghttp.Server
		client *api.APIClient
		ctx    context.Context
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		DeferCleanup(server.Close)

		client = api.NewAPIClientWithConfig(&api.TestConfig{
			BaseURL:        server.URL(),
			RequestTimeout: 5 * time.Second,
		})
		ctx = context.Background()
	})

	It("should notice an update that keeps the ETag", func() {
		object := hostGroupObject("checkmk.example.com")
		unchanged := etagHeader(`"v1"`)

		server.AppendHandlers(
			ghttp.CombineHandlers(ghttp.VerifyRequest(http.MethodPost, "/NO_SITE/check_mk/api/v0/domain-types/host_group_config/collections/all"), ghttp.RespondWithJSONEncoded(http.StatusOK, object, unchanged)),
			ghttp.RespondWithJSONEncoded(http.StatusOK, object, unchanged),
			ghttp.CombineHandlers(ghttp.VerifyHeaderKV("If-Match", api.StaleETag), ghttp.RespondWith(http.StatusPreconditionFailed, nil)),
			ghttp.RespondWithJSONEncoded(http.StatusOK, object, unchanged),
			ghttp.CombineHandlers(ghttp.VerifyHeaderKV("If-Match", `"v1"`), ghttp.RespondWithJSONEncoded(http.StatusOK, object, unchanged)),
		)

		report, err := api.NewGroupLifecycle(client, api.HostGroup, api.NewNameGenerator(1)).Run(ctx)
		Expect(err).To(MatchError(api.ErrETagUnchanged))
		Expect(report.Steps).To(HaveLen(4))
		Expect(report.Steps[3].Name).To(Equal("update"))
	})

	It("should notice a rejected update that changed the group", func() {
		object := hostGroupObject("checkmk.example.com")

		server.AppendHandlers(
			ghttp.RespondWithJSONEncoded(http.StatusOK, object, etagHeader(`"v1"`)),
			ghttp.RespondWithJSONEncoded(http.StatusOK, object, etagHeader(`"v1"`)),
			ghttp.RespondWith(http.StatusPreconditionFailed, nil),
			ghttp.RespondWithJSONEncoded(http.StatusOK, object, etagHeader(`"v2"`)),
		)

		report, err := api.NewGroupLifecycle(client, api.HostGroup, api.NewNameGenerator(1)).Run(ctx)
		Expect(err).To(MatchError(api.ErrGroupModified))
		Expect(report.OK()).To(BeFalse())
		Expect(report.Steps[2].Name).To(Equal("reject stale update"))
	})
})
