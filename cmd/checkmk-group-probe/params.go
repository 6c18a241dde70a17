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

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/spf13/pflag"

	"github.com/nscaledev/checkmk-api-tests/test/api"
)

type commandParams struct {
	config  api.TestConfig
	kinds   []string
	seed    int64
	timeout time.Duration
	debug   bool
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}

// Read parses args, which exclude the program name. Flags default to the
// environment variables the test suites read.
func (c *commandParams) Read(args []string, stderr io.Writer) error {
	fs := pflag.NewFlagSet("checkmk-group-probe", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&c.config.BaseURL, "url", os.Getenv("API_BASE_URL"), "site root URL, e.g. http://localhost:5000")
	fs.StringVar(&c.config.Site, "site", getenv("CHECKMK_SITE", api.DefaultSite), "site name in the REST API path")
	fs.StringVar(&c.config.APIVersion, "api-version", getenv("API_VERSION", api.DefaultAPIVersion), "REST API version in the path")
	fs.StringVar(&c.config.AutomationUser, "user", os.Getenv("AUTOMATION_USER"), "automation user name")
	fs.StringVar(&c.config.AutomationSecret, "secret", os.Getenv("AUTOMATION_SECRET"), "automation user secret")
	fs.StringSliceVar(&c.kinds, "kind", kindNames(api.AllGroupKinds()), "group kind to exercise, may be repeated")
	fs.Int64Var(&c.seed, "seed", 0, "random seed for group names, defaults to RANDOM_SEED or the clock")
	fs.DurationVar(&c.timeout, "timeout", 5*time.Minute, "overall deadline for the run")
	fs.DurationVar(&c.config.RequestTimeout, "request-timeout", 30*time.Second, "deadline for a single request")
	fs.BoolVar(&c.config.ValidateResponses, "validate-responses", false, "validate representations against the embedded schema")
	fs.BoolVar(&c.debug, "debug", false, "log every request and response body")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if !fs.Changed("seed") {
		c.seed = c.envSeed()
	}

	if c.debug {
		c.config.DebugLogging = true
		c.config.LogRequests = true
		c.config.LogResponses = true
	}

	if _, err := c.groupKinds(); err != nil {
		return err
	}

	return c.config.Validate()
}

func (c *commandParams) envSeed() int64 {
	if seed, err := strconv.ParseInt(os.Getenv("RANDOM_SEED"), 10, 64); err == nil {
		return seed
	}

	return time.Now().UnixNano()
}

func (c *commandParams) groupKinds() ([]api.GroupKind, error) {
	kinds := make([]api.GroupKind, 0, len(c.kinds))

	for _, name := range c.kinds {
		kind, err := api.ParseGroupKind(name)
		if err != nil {
			return nil, err
		}

		kinds = append(kinds, kind)
	}

	if len(kinds) == 0 {
		return nil, fmt.Errorf("%w: at least one --kind is required", api.ErrUnknownGroupKind)
	}

	return kinds, nil
}

// Reproduce renders a command line that replays the run with the same names.
// The secret is left to the environment.
func (c *commandParams) Reproduce(program string) string {
	var b commandBuilder

	b.add(program,
		"--url", c.config.BaseURL,
		"--site", c.config.Site,
		"--api-version", c.config.APIVersion,
		"--user", c.config.AutomationUser,
		"--seed", strconv.FormatInt(c.seed, 10),
	)

	for _, kind := range c.kinds {
		b.add("--kind", kind)
	}

	return b.String()
}

func kindNames(kinds []api.GroupKind) []string {
	names := make([]string, len(kinds))

	for i, kind := range kinds {
		names[i] = kind.String()
	}

	return names
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
