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

// Package api provides integration test utilities for the Checkmk REST API
// group configuration endpoints (host, contact and service groups).
//
// # Hypermedia Navigation
//
// Checkmk responses are domain objects carrying a list of links. Tests do not
// build object URLs themselves after creation: every follow-up request is made
// by resolving a relation ("self", ".../update", ".../delete") in the previous
// Response into a RequestDescriptor and sending it with APIClient.FollowLink.
//
// # Optimistic Concurrency
//
// Every representation carries an ETag. Mutating calls send it back in
// If-Match. GroupLifecycle exercises both sides of that contract: an update
// with a stale token must fail with 412 and leave the group untouched, the same
// update with the current token must succeed and yield a new token.
//
// # Test-Specific Features
//
// The client includes features tailored for integration testing:
//   - W3C trace context propagation for request correlation
//   - Detailed error logging with trace IDs for debugging
//   - Exact expected-status assertions surfaced as *StatusError
//   - Optional response validation against an embedded OpenAPI document
//   - Seeded random payloads so a failing run can be replayed
package api
