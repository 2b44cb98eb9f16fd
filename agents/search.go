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

	"google.golang.org/adk/model"
	"google.golang.org/adk/session"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/geminitool"

	"github.com/adk-starter/agentkit/config"
)

const (
	defaultSearchName        = "search_agent"
	defaultSearchDescription = "Agent to answer questions using Google Search."
	defaultSearchInstruction = "I can answer your questions by searching the internet. Just ask me anything!"

	// NoResponse is reported when the agent finished a turn without text.
	NoResponse = "No response from the agent."
)

// SearchConfig configures a SearchAgent. Empty fields take the search
// defaults.
type SearchConfig struct {
	Name            string
	Model           string
	Description     string
	Instruction     string
	AppName         string
	AdditionalTools []tool.Tool
	SessionService  session.Service
	LLM             model.LLM
	Settings        *config.Settings
}

// SearchAgent is an Agent equipped with Google Search.
type SearchAgent struct {
	*Agent
}

// NewSearchAgent builds an agent whose first tool is Google Search.
func NewSearchAgent(ctx context.Context, cfg SearchConfig) (*SearchAgent, error) {
	if cfg.Name == "" {
		cfg.Name = defaultSearchName
	}
	if cfg.Description == "" {
		cfg.Description = defaultSearchDescription
	}
	if cfg.Instruction == "" {
		cfg.Instruction = defaultSearchInstruction
	}
	tools := append([]tool.Tool{geminitool.GoogleSearch{}}, cfg.AdditionalTools...)

	a, err := New(ctx, Config{
		Name:           cfg.Name,
		Model:          cfg.Model,
		Description:    cfg.Description,
		Instruction:    cfg.Instruction,
		Tools:          tools,
		SessionService: cfg.SessionService,
		AppName:        cfg.AppName,
		LLM:            cfg.LLM,
		Settings:       cfg.Settings,
	})
	if err != nil {
		return nil, err
	}
	return &SearchAgent{Agent: a}, nil
}

// Search runs the query and returns the answer, or NoResponse when the agent
// produced no final text.
func (s *SearchAgent) Search(ctx context.Context, query, userID, sessionID string) (string, error) {
	if userID == "" {
		userID = "user"
	}
	if sessionID == "" {
		sessionID = "session"
	}
	resp, err := s.RunAndGetResponse(ctx, userID, sessionID, query)
	if err != nil {
		return "", err
	}
	if resp == "" {
		return NoResponse, nil
	}
	return resp, nil
}
