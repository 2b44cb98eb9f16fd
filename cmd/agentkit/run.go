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

	"github.com/adk-starter/agentkit/agents"
	"github.com/adk-starter/agentkit/server/web"
)

const cliUserID = "user"

type runOptions struct {
	query       string
	interactive bool
	web         bool
	host        string
	port        int

	name        string
	model       string
	description string
	instruction string
	extra       map[string]string
}

func newRunCmd(a *app) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run <agent_type>",
		Short: "Run an agent",
		Long: `Run an agent with a single query, as an interactive chat, or behind the
local web server.

Agent types: ` + strings.Join(agents.ListTypes(), ", ") + `

Examples:
  agentkit run search --query "What is the capital of France?"
  agentkit run multi_tool --interactive
  agentkit run search --web --port 8000
  agentkit run mcp --option mcp_command=npx --option mcp_args=-y,@modelcontextprotocol/server-everything`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: agents.ListTypes(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd.Context(), a, args[0], opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.query, "query", "", "query to send to the agent")
	f.BoolVar(&opts.interactive, "interactive", false, "run in interactive mode")
	f.BoolVar(&opts.web, "web", false, "run with the web interface")
	f.StringVar(&opts.host, "host", web.DefaultHost, "host to bind the web interface to")
	f.IntVar(&opts.port, "port", 0, "port to bind the web interface to; defaults to WEB_UI_PORT")
	f.StringVar(&opts.name, "name", "", "name of the agent")
	f.StringVar(&opts.model, "model", "", "model to use")
	f.StringVar(&opts.description, "description", "", "description of the agent")
	f.StringVar(&opts.instruction, "instruction", "", "instructions for the agent")
	f.StringToStringVar(&opts.extra, "option", nil, "agent type specific option as key=value")
	cmd.MarkFlagsMutuallyExclusive("query", "interactive", "web")
	return cmd
}

// extraOptions converts --option values. Comma separated values become lists.
func extraOptions(in map[string]string) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		if strings.Contains(v, ",") {
			out[k] = strings.Split(v, ",")
			continue
		}
		out[k] = v
	}
	return out
}

func runAgent(ctx context.Context, a *app, agentType string, opts runOptions) error {
	agent, err := agents.Create(ctx, agentType, agents.CreateOptions{
		Name:        opts.name,
		Model:       opts.model,
		Description: opts.description,
		Instruction: opts.instruction,
		Extra:       extraOptions(opts.extra),
		Settings:    a.settings,
	})
	if err != nil {
		return err
	}
	a.log.Info("Created agent", "name", agent.Name())

	switch {
	case opts.web:
		port := opts.port
		if port == 0 {
			port = a.settings.WebUIPort
		}
		return web.Serve(ctx, web.Config{Host: opts.host, Port: port}, agent)

	case opts.interactive:
		a.log.Info("Running agent in interactive mode")
		sessionID := uuid.NewString()
		return runREPL(ctx, os.Stdin, os.Stdout, agent.Name(), func(ctx context.Context, query string) (string, error) {
			return ask(ctx, agent, sessionID, query)
		})

	case opts.query != "":
		a.log.Info("Running agent with query", "query", opts.query)
		response, err := ask(ctx, agent, "session", opts.query)
		if err != nil {
			response = "Error: " + err.Error()
		}
		fmt.Printf("\nQuery: %s\nResponse: %s\n", opts.query, response)
		return nil

	default:
		return fmt.Errorf("please specify a query with --query, run in interactive mode with --interactive, or start the web interface with --web")
	}
}

func ask(ctx context.Context, agent *agents.Agent, sessionID, query string) (string, error) {
	response, err := agent.RunAndGetResponse(ctx, cliUserID, sessionID, query)
	if err != nil {
		return "", err
	}
	if response == "" {
		return agents.NoResponse, nil
	}
	return response, nil
}
