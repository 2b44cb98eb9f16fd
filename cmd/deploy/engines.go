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

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/adk-starter/agentkit/agents"
	"github.com/adk-starter/agentkit/deploy"
	"github.com/adk-starter/agentkit/logging"
)

const testMessage = "Hello, can you help me?"

func newDeployCmd(a *app) *cobra.Command {
	var skipSteps, skipLocalTest bool
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the configured agent to Vertex AI Agent Engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := a.cloud(ctx)
			if err != nil {
				return err
			}
			cfg := a.cfg
			a.log.Info("Deploying agent", "environment", cfg.Environment, "agent", cfg.Agent.Name)

			if !skipSteps && len(cfg.Steps) > 0 {
				if err := deploy.RunSteps(ctx, cfg); err != nil {
					return err
				}
			}
			if !skipLocalTest {
				localSmokeTest(ctx, a)
			}

			storageOpts, err := a.storageOptions(ctx)
			if err != nil {
				return err
			}
			stager, err := deploy.NewStager(ctx, cfg.VertexAI.ProjectID, cfg.VertexAI.Region, cfg.VertexAI.StagingBucket, storageOpts...)
			if err != nil {
				return err
			}
			defer stager.Close()
			stager.EnsureBucket(ctx)

			pkg, err := deploy.Stage(ctx, stager, cfg.Agent.Name, cfg.Package)
			if err != nil {
				return err
			}
			a.log.Info("Staged agent package", "pickle", pkg.PickleURI, "requirements", pkg.RequirementsURI, "dependencies", pkg.DependenciesURI)

			engines, err := deploy.NewEngines(ctx, cfg.VertexAI.ProjectID, cfg.VertexAI.Region, opts...)
			if err != nil {
				return err
			}
			defer engines.Close()

			engine, err := engines.Create(ctx, cfg.Agent.Name, cfg.Agent.Description, pkg)
			if err != nil {
				return err
			}
			a.log.Info("Agent deployed to Agent Engine", "name", engine.GetName())

			res, err := engines.Test(ctx, path.Base(engine.GetName()), "test_user_remote", testMessage)
			if err != nil {
				logging.Warn(a.log, "remote agent test failed, the deployment may not be fully functional", "error", err.Error())
			} else {
				a.log.Info("Remote agent test succeeded", "session", res.SessionID, "events", res.Events)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deployed %s\n", engine.GetName())
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipSteps, "skip-steps", false, "do not run deployment_steps before deploying")
	cmd.Flags().BoolVar(&skipLocalTest, "skip-local-test", false, "do not try the agent locally before deploying")
	return cmd
}

// localSmokeTest sends one message to a local instance of the configured
// agent. Failures are only logged.
func localSmokeTest(ctx context.Context, a *app) {
	spec := a.cfg.Agent
	agent, err := agents.Create(ctx, spec.Type, agents.CreateOptions{
		Name:        spec.Name,
		Model:       spec.Model,
		Description: spec.Description,
		Instruction: spec.Instruction,
		Settings:    a.settings,
	})
	if err == nil {
		_, err = agent.RunAndGetResponse(ctx, "test_user", "test_session", testMessage)
	}
	if err != nil {
		logging.Warn(a.log, "local agent test failed, continuing with deployment anyway", "error", err.Error())
		return
	}
	a.log.Info("Local agent test succeeded")
}

func openEngines(ctx context.Context, a *app) (*deploy.Engines, error) {
	opts, err := a.cloud(ctx)
	if err != nil {
		return nil, err
	}
	return deploy.NewEngines(ctx, a.cfg.VertexAI.ProjectID, a.cfg.VertexAI.Region, opts...)
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List deployed Agent Engine instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engines, err := openEngines(cmd.Context(), a)
			if err != nil {
				return err
			}
			defer engines.Close()

			list, err := engines.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No deployed agents found.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDISPLAY NAME\tCREATED")
			for _, e := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", path.Base(e.GetName()), e.GetDisplayName(), e.GetCreateTime().AsTime().Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <engine_id>",
		Short: "Show a deployed Agent Engine instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engines, err := openEngines(cmd.Context(), a)
			if err != nil {
				return err
			}
			defer engines.Close()

			e, err := engines.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:         %s\n", e.GetName())
			fmt.Fprintf(out, "Display name: %s\n", e.GetDisplayName())
			fmt.Fprintf(out, "Description:  %s\n", e.GetDescription())
			fmt.Fprintf(out, "Created:      %s\n", e.GetCreateTime().AsTime().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Updated:      %s\n", e.GetUpdateTime().AsTime().Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}

// confirm asks a yes/no question and defaults to no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func newDeleteCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <engine_id>",
		Short: "Delete a deployed Agent Engine instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engines, err := openEngines(cmd.Context(), a)
			if err != nil {
				return err
			}
			defer engines.Close()

			name := engines.Name(args[0])
			if !force && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Delete "+name+"?") {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
			if err := engines.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "delete without asking for confirmation")
	return cmd
}

func newTestCmd(a *app) *cobra.Command {
	var userID, message string
	cmd := &cobra.Command{
		Use:   "test <engine_id>",
		Short: "Send a test message to a deployed Agent Engine instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engines, err := openEngines(cmd.Context(), a)
			if err != nil {
				return err
			}
			defer engines.Close()

			res, err := engines.Test(cmd.Context(), args[0], userID, message)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session:  %s\n", res.SessionID)
			fmt.Fprintf(out, "Events:   %d\n", res.Events)
			fmt.Fprintf(out, "Response: %s\n", res.Response)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "test_user", "user ID for the test session")
	cmd.Flags().StringVar(&message, "message", testMessage, "message to send")
	return cmd
}
