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

// checkmk-group-probe exercises the group configuration lifecycle against a
// live site without the Ginkgo harness, for smoke checks after upgrades.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nscaledev/checkmk-api-tests/test/api"
)

// printfLogger adapts zap to the client's Printf logger.
type printfLogger struct {
	logger *zap.SugaredLogger
}

func (l printfLogger) Printf(format string, args ...interface{}) {
	l.logger.Infof(strings.TrimSuffix(format, "\n"), args...)
}

func newLogger(debug bool) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.DisableStacktrace = true

	if !debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}

	return config.Build()
}

var (
	pass = color.New(color.FgGreen, color.Bold).SprintFunc()
	fail = color.New(color.FgRed, color.Bold).SprintFunc()
)

// run executes the lifecycle once per kind and reports whether all of them passed.
func run(ctx context.Context, params *commandParams, logger *zap.Logger, stdout io.Writer) (bool, error) {
	kinds, err := params.groupKinds()
	if err != nil {
		return false, err
	}

	options := []api.Option{
		api.WithLogger(printfLogger{logger: logger.Sugar()}),
	}

	if params.config.ValidateResponses {
		schema, err := api.LoadSchema(ctx)
		if err != nil {
			return false, err
		}

		options = append(options, api.WithSchemaValidation(schema))
	}

	client := api.NewAPIClientWithConfig(&params.config, options...)
	names := api.NewNameGenerator(params.seed)

	logger.Info("probe starting", zap.String("url", params.config.BaseURL), zap.Int64("seed", names.Seed()), zap.Strings("kinds", params.kinds))

	ok := true

	for _, kind := range kinds {
		lifecycle := api.NewGroupLifecycle(client, kind, names)

		report, err := lifecycle.Run(ctx)
		printReport(stdout, report)

		if err != nil {
			ok = false

			logger.Error("lifecycle failed", zap.Stringer("kind", kind), zap.String("group", report.Group.Name), zap.Error(err))
			cleanup(ctx, client, logger, kind, report.Group.Name)
		}
	}

	return ok, nil
}

func printReport(w io.Writer, report *api.LifecycleReport) {
	status := pass("PASS")
	if !report.OK() {
		status = fail("FAIL")
	}

	fmt.Fprintf(w, "%s %s group %s\n", status, report.Kind, report.Group.Name)

	for _, step := range report.Steps {
		if step.Err != nil {
			fmt.Fprintf(w, "  %s %s (%s): %v\n", fail("x"), step.Name, step.Duration, step.Err)
			continue
		}

		fmt.Fprintf(w, "  %s %s (%s)\n", pass("ok"), step.Name, step.Duration)
	}
}

// cleanup removes a group a failed run may have left behind.
func cleanup(ctx context.Context, client *api.APIClient, logger *zap.Logger, kind api.GroupKind, name string) {
	current, err := client.GetGroupByName(ctx, kind, name, 0)
	if err != nil {
		logger.Warn("cleanup read failed", zap.Stringer("kind", kind), zap.String("group", name), zap.Error(err))
		return
	}

	if current.StatusCode == http.StatusNotFound {
		return
	}

	etag, err := current.ETag()
	if err != nil {
		logger.Warn("cleanup skipped", zap.Stringer("kind", kind), zap.String("group", name), zap.Error(err))
		return
	}

	if _, err := client.DeleteGroup(ctx, current, etag, http.StatusNoContent); err != nil {
		logger.Warn("cleanup delete failed", zap.Stringer("kind", kind), zap.String("group", name), zap.Error(err))
	}
}

func main() {
	var params commandParams

	if err := params.Read(os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}

		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := newLogger(params.debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	zap.ReplaceGlobals(logger)

	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	ctx, cancel := context.WithTimeout(ctx, params.timeout)

	ok, err := run(ctx, &params, logger, color.Output)

	cancel()
	stop()

	if err != nil {
		logger.Error("probe failed", zap.Error(err))
		os.Exit(1)
	}

	if !ok {
		fmt.Fprintf(os.Stderr, "To reproduce: AUTOMATION_SECRET=... %s\n", params.Reproduce(os.Args[0]))
		os.Exit(1)
	}
}
