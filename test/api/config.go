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
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"k8s.io/utils/ptr"
)

const (
	DefaultSite       = "NO_SITE"
	DefaultAPIVersion = "v0"
)

type TestConfig struct {
	BaseURL           string
	Site              string
	APIVersion        string
	AutomationUser    string
	AutomationSecret  string
	RequestTimeout    time.Duration
	TestTimeout       time.Duration
	RandomSeed        *int64
	SkipIntegration   bool
	ValidateResponses bool
	DebugLogging      bool
	LogRequests       bool
	LogResponses      bool
}

// LoadTestConfig loads configuration from environment variables and .env files.
// Returns an error if required configuration values are missing.
func LoadTestConfig() (*TestConfig, error) {
	loadEnvFile()

	config := &TestConfig{
		BaseURL:           os.Getenv("API_BASE_URL"),
		Site:              getStringWithDefault("CHECKMK_SITE", DefaultSite),
		APIVersion:        getStringWithDefault("API_VERSION", DefaultAPIVersion),
		AutomationUser:    os.Getenv("AUTOMATION_USER"),
		AutomationSecret:  os.Getenv("AUTOMATION_SECRET"),
		RequestTimeout:    getDurationWithDefault("REQUEST_TIMEOUT", 30*time.Second),
		TestTimeout:       getDurationWithDefault("TEST_TIMEOUT", 5*time.Minute),
		RandomSeed:        getInt64(os.Getenv("RANDOM_SEED")),
		SkipIntegration:   getBoolWithDefault("SKIP_INTEGRATION", false),
		ValidateResponses: getBoolWithDefault("VALIDATE_RESPONSES", false),
		DebugLogging:      getBoolWithDefault("DEBUG_LOGGING", false),
		LogRequests:       getBoolWithDefault("LOG_REQUESTS", false),
		LogResponses:      getBoolWithDefault("LOG_RESPONSES", false),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that all required configuration values are set.
func (c *TestConfig) Validate() error {
	required := map[string]string{
		"API_BASE_URL":      c.BaseURL,
		"AUTOMATION_USER":   c.AutomationUser,
		"AUTOMATION_SECRET": c.AutomationSecret,
	}

	var missing []string

	for envVar, value := range required {
		if value == "" {
			missing = append(missing, envVar)
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)

		return fmt.Errorf("%w: %s. Please set these environment variables or add them to a .env file", ErrMissingConfig, strings.Join(missing, ", "))
	}

	return nil
}

// Seed returns the configured random seed, or a clock derived one.
func (c *TestConfig) Seed() int64 {
	return ptr.Deref(c.RandomSeed, time.Now().UnixNano())
}

func getStringWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// getDurationWithDefault gets a duration from environment variable or returns default.
func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

// getBoolWithDefault gets a boolean from environment variable or returns default.
func getBoolWithDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}

// getInt64 returns nil when the value is unset or malformed.
func getInt64(value string) *int64 {
	if value == "" {
		return nil
	}

	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil
	}

	return ptr.To(i)
}

func loadEnvFile() {
	envPaths := []string{
		"../../test/.env",    // From test/api directory
		"../../../test/.env", // From test/api/suites directory
	}

	var envPath string

	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				envPath = absPath
				break
			}
		}
	}

	if envPath == "" {
		// .env file not found - this is OK in CI/CD where env vars are set directly
		return
	}

	// Load does not override variables that are already set.
	if err := godotenv.Load(envPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file from %s: %v\n", envPath, err)
	}
}
