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
	"fmt"
	"os"
	"os/exec"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/adk-starter/agentkit/deploy"
)

func newEndpointCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "endpoint",
		Short: "Serve the agent from a Vertex AI prediction endpoint",
	}
	cmd.AddCommand(newEndpointDeployCmd(a), newEndpointPredictCmd(a))
	return cmd
}

func openEndpoints(cmd *cobra.Command, a *app) (*deploy.Endpoints, error) {
	opts, err := a.cloud(cmd.Context())
	if err != nil {
		return nil, err
	}
	return deploy.NewEndpoints(cmd.Context(), a.cfg.VertexAI.ProjectID, a.cfg.VertexAI.Region, opts...)
}

func newEndpointDeployCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Upload the serving image as a model and deploy it to a new endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			endpoints, err := openEndpoints(cmd, a)
			if err != nil {
				return err
			}
			defer endpoints.Close()

			model, err := endpoints.UploadModel(ctx, a.cfg.Endpoint)
			if err != nil {
				return err
			}
			a.log.Info("Uploaded model", "model", model)

			endpoint, err := endpoints.Deploy(ctx, model, a.cfg.Endpoint, a.cfg.VertexAI)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deployed to %s\n", endpoint)
			return nil
		},
	}
}

func newEndpointPredictCmd(a *app) *cobra.Command {
	var userID, sessionID, message string
	cmd := &cobra.Command{
		Use:   "predict <endpoint_id>",
		Short: "Send a message to an agent served from an endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoints, err := openEndpoints(cmd, a)
			if err != nil {
				return err
			}
			defer endpoints.Close()

			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			response, err := endpoints.Predict(cmd.Context(), args[0], userID, sessionID, message)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Response: %s\n", response)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "test_user", "user ID sent with the instance")
	cmd.Flags().StringVar(&sessionID, "session-id", "", "session ID sent with the instance; random when empty")
	cmd.Flags().StringVar(&message, "message", testMessage, "message to send")
	return cmd
}

func newLocalCmd(a *app) *cobra.Command {
	var binary string
	cmd := &cobra.Command{
		Use:   "local",
		Short: "Serve the configured agent with the local web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			run := exec.CommandContext(ctx, binary, deploy.LocalArgs(a.cfg)...)
			run.Stdin, run.Stdout, run.Stderr = os.Stdin, os.Stdout, os.Stderr
			a.log.Info("Starting local server", "command", run.String())
			return run.Run()
		},
	}
	cmd.Flags().StringVar(&binary, "agentkit", "agentkit", "path to the agentkit binary")
	return cmd
}

func newStepsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "Run the deployment_steps of the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			if len(a.cfg.Steps) == 0 {
				a.log.Info("No deployment steps configured")
				return nil
			}
			return deploy.RunSteps(cmd.Context(), a.cfg)
		},
	}
}
