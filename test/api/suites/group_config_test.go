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

package suites

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2" //nolint:revive
	. "github.com/onsi/gomega"    //nolint:revive

	"github.com/nscaledev/checkmk-api-tests/test/api"
)

var _ = Describe("Group Configuration", func() {
	Context("When managing a group through its links", func() {
		DescribeTable("should honour optimistic concurrency through the whole lifecycle",
			func(kind api.GroupKind) {
				lifecycle := api.NewGroupLifecycle(client, kind, names)
				group := lifecycle.Group()

				GinkgoWriter.Printf("Exercising %s group %s (alias %s)\n", kind, group.Name, group.Alias)
				api.DeferGroupCleanup(client, ctx, kind, group.Name)

				By("creating the group")
				Expect(lifecycle.Create(ctx)).To(Succeed())

				By("following the self link")
				Expect(lifecycle.Fetch(ctx)).To(Succeed())

				By("rejecting an update with a stale ETag")
				Expect(lifecycle.RejectStaleUpdate(ctx)).To(Succeed())

				By("accepting an update with the current ETag")
				Expect(lifecycle.Update(ctx)).To(Succeed())
				Expect(lifecycle.UpdatedETag()).NotTo(Equal(lifecycle.CreatedETag()))

				By("deleting the group")
				Expect(lifecycle.Delete(ctx)).To(Succeed())

				By("verifying the self link is gone")
				Expect(lifecycle.VerifyGone(ctx)).To(Succeed())
			},
			Entry("for host groups", api.HostGroup),
			Entry("for contact groups", api.ContactGroup),
			Entry("for service groups", api.ServiceGroup),
		)
	})

	Context("When preconditions are missing", func() {
		DescribeTable("should require If-Match on update and delete",
			func(kind api.GroupKind) {
				group := names.NewGroup()
				created := api.CreateGroupWithCleanup(client, ctx, kind, group)

				_, err := client.UpdateGroup(ctx, created, group.Renamed(api.UpdatedSuffix), "", http.StatusPreconditionRequired)
				Expect(err).NotTo(HaveOccurred())

				_, err = client.DeleteGroup(ctx, created, "", http.StatusPreconditionRequired)
				Expect(err).NotTo(HaveOccurred())

				current, err := client.GetGroup(ctx, created, http.StatusOK)
				Expect(err).NotTo(HaveOccurred())
				Expect(current.Object.Group()).To(Equal(group))
			},
			Entry("for host groups", api.HostGroup),
			Entry("for contact groups", api.ContactGroup),
			Entry("for service groups", api.ServiceGroup),
		)
	})

	Context("When listing groups", func() {
		It("should include a freshly created group", func() {
			group := names.NewGroup()
			api.CreateGroupWithCleanup(client, ctx, api.HostGroup, group)

			groups, err := client.ListGroups(ctx, api.HostGroup)
			Expect(err).NotTo(HaveOccurred())
			Expect(groups).To(ContainElement(HaveField("Name", group.Name)))
		})
	})

	Context("When reading groups by name", func() {
		It("should return not found for a name that was never created", func() {
			_, err := client.GetGroupByName(ctx, api.ServiceGroup, names.NewGroup().Name, http.StatusNotFound)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Context("When authentication is wrong", func() {
		It("should reject an unknown automation secret", func() {
			user := api.WithAutomationUser(config)
			client.SetAuthorization(user.Username, user.Secret+"-wrong")

			_, err := client.CreateGroup(ctx, api.ContactGroup, names.NewGroup())
			Expect(api.IsStatus(err, http.StatusUnauthorized)).To(BeTrue(), "expected 401, got %v", err)
		})
	})
})
