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

package agents

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/agenttool"
	"google.golang.org/adk/tool/geminitool"
	"google.golang.org/adk/tool/mcptoolset"
	"google.golang.org/genai"

	"github.com/adk-starter/agentkit/config"
	"github.com/adk-starter/agentkit/tools"
)

func init() {
	DefaultRegistry.MustRegister("base", newBaseAgent)
	DefaultRegistry.MustRegister("search", newSearchAgent)
	DefaultRegistry.MustRegister("vertex_search", newVertexSearchAgent)
	DefaultRegistry.MustRegister("multi_tool", newMultiToolAgent)
	DefaultRegistry.MustRegister("mcp", newMCPAgent)
}

type commonOptions struct {
	AppName string `mapstructure:"app_name"`
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func newBaseAgent(ctx context.Context, opts CreateOptions) (*Agent, error) {
	var extra commonOptions
	if err := DecodeExtra(opts.Extra, &extra); err != nil {
		return nil, err
	}
	return New(ctx, Config{
		Name:           orDefault(opts.Name, "base_agent"),
		Model:          opts.Model,
		Description:    orDefault(opts.Description, "A generic base agent."),
		Instruction:    orDefault(opts.Instruction, "I am a base agent."),
		Tools:          []tool.Tool{geminitool.GoogleSearch{}},
		AppName:        extra.AppName,
		SessionService: opts.SessionService,
		LLM:            opts.LLM,
		Settings:       opts.Settings,
	})
}

func newSearchAgent(ctx context.Context, opts CreateOptions) (*Agent, error) {
	var extra commonOptions
	if err := DecodeExtra(opts.Extra, &extra); err != nil {
		return nil, err
	}
	sa, err := NewSearchAgent(ctx, SearchConfig{
		Name:           opts.Name,
		Model:          opts.Model,
		Description:    orDefault(opts.Description, "A search agent that can answer questions using Google Search."),
		Instruction:    opts.Instruction,
		AppName:        extra.AppName,
		SessionService: opts.SessionService,
		LLM:            opts.LLM,
		Settings:       opts.Settings,
	})
	if err != nil {
		return nil, err
	}
	return sa.Agent, nil
}

type vertexSearchOptions struct {
	AppName     string `mapstructure:"app_name"`
	DatastoreID string `mapstructure:"datastore_id"`
}

// DatastorePath expands a bare data store ID into its resource name in the
// default collection of the global location.
func DatastorePath(project, id string) string {
	if strings.HasPrefix(id, "projects/") {
		return id
	}
	return fmt.Sprintf("projects/%s/locations/global/collections/default_collection/dataStores/%s", project, id)
}

func newVertexSearchAgent(ctx context.Context, opts CreateOptions) (*Agent, error) {
	var extra vertexSearchOptions
	if err := DecodeExtra(opts.Extra, &extra); err != nil {
		return nil, err
	}
	settings, err := settingsOrEnv(opts.Settings)
	if err != nil {
		return nil, err
	}
	id := orDefault(extra.DatastoreID, settings.VertexAISearchDatastoreID)
	if id == "" {
		return nil, fmt.Errorf("VERTEX_AI_SEARCH_DATASTORE_ID or the datastore_id option is required")
	}
	retrieval := geminitool.New("vertex_ai_search", &genai.Tool{
		Retrieval: &genai.Retrieval{
			VertexAISearch: &genai.VertexAISearch{
				Datastore: DatastorePath(settings.GoogleCloudProject, id),
			},
		},
	})
	return New(ctx, Config{
		Name:           orDefault(opts.Name, "vertex_search_agent"),
		Model:          opts.Model,
		Description:    orDefault(opts.Description, "Agent to answer questions from a Vertex AI Search data store."),
		Instruction:    orDefault(opts.Instruction, "Answer questions using the documents found in the data store. Say so when nothing relevant is found."),
		Tools:          []tool.Tool{retrieval},
		AppName:        extra.AppName,
		SessionService: opts.SessionService,
		LLM:            opts.LLM,
		Settings:       settings,
	})
}

// newMultiToolAgent pairs the example function tools with Google Search. The
// search runs in its own agent exposed as a tool because Gemini rejects
// requests mixing built-in search with function declarations.
func newMultiToolAgent(ctx context.Context, opts CreateOptions) (*Agent, error) {
	var extra commonOptions
	if err := DecodeExtra(opts.Extra, &extra); err != nil {
		return nil, err
	}
	examples, err := tools.Examples()
	if err != nil {
		return nil, err
	}
	name := orDefault(opts.Name, "multi_tool_agent")
	searcher, err := NewSearchAgent(ctx, SearchConfig{
		Name:     name + "_search",
		Model:    opts.Model,
		LLM:      opts.LLM,
		Settings: opts.Settings,
	})
	if err != nil {
		return nil, err
	}
	all := append(examples, agenttool.New(searcher.ADKAgent(), nil))

	return New(ctx, Config{
		Name:        name,
		Model:       opts.Model,
		Description: orDefault(opts.Description, "An agent that can search the web and use custom tools."),
		Instruction: orDefault(opts.Instruction, "I can answer your questions by searching the internet and using custom tools. "+
			"I can also get the current date and time and perform calculations."),
		Tools:          all,
		AppName:        extra.AppName,
		SessionService: opts.SessionService,
		LLM:            opts.LLM,
		Settings:       opts.Settings,
	})
}

type mcpOptions struct {
	AppName string   `mapstructure:"app_name"`
	Command string   `mapstructure:"mcp_command"`
	Args    []string `mapstructure:"mcp_args"`
}

// newMCPAgent exposes the tools of an MCP server started as a subprocess.
func newMCPAgent(ctx context.Context, opts CreateOptions) (*Agent, error) {
	var extra mcpOptions
	if err := DecodeExtra(opts.Extra, &extra); err != nil {
		return nil, err
	}
	if extra.Command == "" {
		return nil, fmt.Errorf("the mcp_command option is required")
	}
	toolset, err := mcptoolset.New(mcptoolset.Config{
		Transport: &mcp.CommandTransport{Command: exec.Command(extra.Command, extra.Args...)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP toolset: %w", err)
	}
	return New(ctx, Config{
		Name:           orDefault(opts.Name, "mcp_agent"),
		Model:          opts.Model,
		Description:    orDefault(opts.Description, "An agent using the tools of an MCP server."),
		Instruction:    orDefault(opts.Instruction, "Use the available tools to help the user."),
		Toolsets:       []tool.Toolset{toolset},
		AppName:        extra.AppName,
		SessionService: opts.SessionService,
		LLM:            opts.LLM,
		Settings:       opts.Settings,
	})
}

func settingsOrEnv(s *config.Settings) (*config.Settings, error) {
	if s != nil {
		return s, nil
	}
	return config.Load()
}
