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
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/adk-starter/agentkit/auth"
	"github.com/adk-starter/agentkit/deploy"
	"github.com/adk-starter/agentkit/server/web/models"
)

const noRemoteText = "[No text response received]"

func newChatRemoteCmd(a *app) *cobra.Command {
	var project, region, engineID string
	cmd := &cobra.Command{
		Use:   "chat-remote",
		Short: "Chat with an agent deployed to Vertex AI Agent Engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if project == "" {
				project = a.settings.GoogleCloudProject
			}
			if region == "" {
				region = a.settings.GoogleCloudRegion
			}
			if project == "" {
				return fmt.Errorf("a project is required; pass --project or set GOOGLE_CLOUD_PROJECT")
			}

			opts, err := auth.ClientOptions(ctx, a.settings, region)
			if err != nil {
				return err
			}
			engines, err := deploy.NewEngines(ctx, project, region, opts...)
			if err != nil {
				return err
			}
			defer engines.Close()

			userID := "user_" + uuid.NewString()[:8]
			sessionID, err := engines.CreateSession(ctx, engineID, userID)
			if err != nil {
				return fmt.Errorf("creating remote session: %w", err)
			}
			a.log.Info("Created remote session", "engine", engines.Name(engineID), "user", userID, "session", sessionID)

			return runREPL(ctx, os.Stdin, os.Stdout, "Remote Agent", func(ctx context.Context, query string) (string, error) {
				return askRemote(ctx, engines, engineID, userID, sessionID, query)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&project, "project", "", "Google Cloud project ID; defaults to GOOGLE_CLOUD_PROJECT")
	f.StringVar(&region, "region", "", "Vertex AI region; defaults to GOOGLE_CLOUD_REGION")
	f.StringVar(&engineID, "engine-id", "", "reasoning engine ID")
	_ = cmd.MarkFlagRequired("engine-id")
	return cmd
}

// askRemote streams one turn and joins the text of every event. Tool activity
// is shown inline the same way the web history renders it.
func askRemote(ctx context.Context, engines *deploy.Engines, id, userID, sessionID, query string) (string, error) {
	var lines []string
	for ev, err := range engines.StreamQuery(ctx, id, userID, sessionID, query) {
		if err != nil {
			return "", err
		}
		decoded := models.DecodeEvent(ev)
		if decoded.Kind == models.EventEmpty {
			continue
		}
		if entry, ok := decoded.Entry(); ok {
			lines = append(lines, entry.Text)
		}
	}
	if len(lines) == 0 {
		return noRemoteText, nil
	}
	return strings.Join(lines, "\n"), nil
}
