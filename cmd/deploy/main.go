// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command deploy stages agents to Vertex AI Agent Engine, manages deployed
// engines and prediction endpoints, and serves the configured agent locally.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/adk-starter/agentkit/auth"
	"github.com/adk-starter/agentkit/config"
	"github.com/adk-starter/agentkit/deploy"
	"github.com/adk-starter/agentkit/logging"
)

var environments = []string{"development", "staging", "production"}

type app struct {
	configFile    string
	environment   string
	project       string
	region        string
	stagingBucket string

	cfg      *deploy.Config
	settings *config.Settings
	log      logr.Logger
	sync     func()
}

// load reads the deployment config and applies flag overrides.
func (a *app) load(ctx context.Context) error {
	if a.environment != "" && !slices.Contains(environments, a.environment) {
		return fmt.Errorf("unknown environment %q, expected one of %v", a.environment, environments)
	}
	cfg, err := deploy.LoadConfig(ctx, a.configFile, a.environment)
	if err != nil {
		return err
	}
	if a.project != "" {
		cfg.VertexAI.ProjectID = a.project
	}
	if a.region != "" {
		cfg.VertexAI.Region = a.region
	}
	if a.stagingBucket != "" {
		cfg.VertexAI.StagingBucket = a.stagingBucket
	}
	if cfg.VertexAI.StagingBucket == "" {
		cfg.VertexAI.StagingBucket = a.settings.StagingBucket
	}
	if cfg.VertexAI.StagingBucket == "" && cfg.VertexAI.ProjectID != "" {
		cfg.VertexAI.StagingBucket = deploy.DefaultBucket(cfg.VertexAI.ProjectID)
	}
	a.cfg = cfg
	a.log.Info("Loaded deployment configuration", "environment", cfg.Environment, "project", cfg.VertexAI.ProjectID, "region", cfg.VertexAI.Region)
	return nil
}

// cloud loads and validates the config and resolves client options for the
// regional Vertex AI endpoint.
func (a *app) cloud(ctx context.Context) ([]option.ClientOption, error) {
	if err := a.load(ctx); err != nil {
		return nil, err
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	return auth.ClientOptions(ctx, a.settings, a.cfg.VertexAI.Region)
}

// storageOptions resolves client options for Cloud Storage, which has no
// regional endpoint.
func (a *app) storageOptions(ctx context.Context) ([]option.ClientOption, error) {
	return auth.ClientOptions(ctx, a.settings, "")
}

func newRootCmd(a *app) *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:           "deploy",
		Short:         "Deploy ADK agents to Vertex AI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load()
			if err != nil {
				return err
			}
			if logLevel == "" {
				logLevel = settings.LogLevel
			}
			a.settings = settings
			a.log, a.sync = logging.New(logLevel, logging.Options{})
			cmd.SetContext(logr.NewContext(cmd.Context(), a.log))
			return nil
		},
	}
	f := cmd.PersistentFlags()
	f.StringVar(&a.configFile, "config", deploy.DefaultConfigFile, "path to the deployment configuration file")
	f.StringVar(&a.environment, "environment", "", "deployment environment (development, staging, production)")
	f.StringVar(&a.project, "project", "", "Google Cloud project ID, overrides vertex_ai.project_id")
	f.StringVar(&a.region, "region", "", "Vertex AI region, overrides vertex_ai.region")
	f.StringVar(&a.stagingBucket, "staging-bucket", "", "Cloud Storage bucket for staging, overrides vertex_ai.staging_bucket")
	f.StringVar(&logLevel, "log-level", "", "log level; defaults to LOG_LEVEL")

	cmd.AddCommand(
		newDeployCmd(a),
		newListCmd(a),
		newGetCmd(a),
		newDeleteCmd(a),
		newTestCmd(a),
		newEndpointCmd(a),
		newLocalCmd(a),
		newStepsCmd(a),
	)
	return cmd
}

// remediation suggests a fix for common deployment failures.
func remediation(err error) string {
	if errors.Is(err, deploy.ErrNotConfigured) {
		return "Fill in the missing setting in " + deploy.DefaultConfigFile + " or pass it as a flag"
	}
	switch status.Code(err) {
	case codes.Unauthenticated:
		return "Authenticate with: gcloud auth application-default login"
	case codes.PermissionDenied:
		return "Make sure the Vertex AI API is enabled and your account has the Vertex AI User role"
	case codes.NotFound:
		return "Check the resource ID and region with: deploy list"
	}
	if errors.Is(err, os.ErrNotExist) {
		return "Check the paths in " + deploy.DefaultConfigFile
	}
	return ""
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{log: logr.Discard(), sync: func() {}}
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()
	if err != nil {
		a.log.Error(err, "Deployment command failed")
		if hint := remediation(err); hint != "" {
			a.log.Info(hint)
		}
		a.sync()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	a.sync()
}
