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

	"github.com/spf13/cobra"

	"github.com/adk-starter/agentkit/agents"
)

func newGraphCmd(a *app) *cobra.Command {
	var extra map[string]string
	cmd := &cobra.Command{
		Use:       "graph <agent_type>",
		Short:     "Print the agent and its tools as a Graphviz DOT graph",
		Args:      cobra.ExactArgs(1),
		ValidArgs: agents.ListTypes(),
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, err := agents.Create(cmd.Context(), args[0], agents.CreateOptions{
				Extra:    extraOptions(extra),
				Settings: a.settings,
			})
			if err != nil {
				return err
			}
			dot, err := agent.Graph(nil)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), dot)
			return err
		},
	}
	cmd.Flags().StringToStringVar(&extra, "option", nil, "agent type specific option as key=value")
	return cmd
}
