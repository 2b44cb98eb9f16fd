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

// Package agents wraps ADK LLM agents with a session service and a runner and
// keeps a registry of agent types used by the command line.
package agents

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/adk/tool"
	"google.golang.org/genai"

	"github.com/adk-starter/agentkit/config"
)

// ErrSessionNotFound is returned when a session does not exist in the
// session service.
var ErrSessionNotFound = errors.New("session not found")

var tracer = otel.Tracer("github.com/adk-starter/agentkit/agents")

// Config describes an agent to build.
type Config struct {
	Name        string
	Model       string
	Description string
	Instruction string
	Tools       []tool.Tool
	Toolsets    []tool.Toolset
	SubAgents   []agent.Agent
	// SessionService defaults to an in-memory service.
	SessionService session.Service
	// AppName defaults to Name.
	AppName string
	// LLM overrides the Gemini model built from Model and Settings.
	LLM model.LLM
	// Settings default to the process environment.
	Settings *config.Settings
}

// Agent is an orchestrating agent that delegates every turn to an inner LLM
// agent. It owns the session service and the runner used to drive it.
type Agent struct {
	root     agent.Agent
	llm      agent.Agent
	runner   *runner.Runner
	sessions session.Service

	name        string
	model       string
	description string
	instruction string
	appName     string
	tools       []tool.Tool
	toolsets    []tool.Toolset
	subAgents   []agent.Agent
}

// New validates the configuration and builds the agent. Validation of the
// settings is skipped in development mode.
func New(ctx context.Context, cfg Config) (*Agent, error) {
	log := logr.FromContextOrDiscard(ctx)

	if cfg.Name == "" {
		return nil, fmt.Errorf("agent name is required")
	}
	settings := cfg.Settings
	if settings == nil {
		var err error
		settings, err = config.FromEnv(os.LookupEnv)
		if err != nil {
			return nil, err
		}
	}
	if !settings.DevMode {
		if err := settings.Validate(); err != nil {
			return nil, err
		}
	}

	modelName := validateModel(cfg.Model, settings.DefaultModel)
	appName := cfg.AppName
	if appName == "" {
		appName = cfg.Name
	}

	llm := cfg.LLM
	if llm == nil {
		llm = newLazyGemini(modelName, settings)
	}

	inner, err := llmagent.New(llmagent.Config{
		Name:        cfg.Name + "_llm",
		Model:       llm,
		Description: cfg.Description,
		Instruction: cfg.Instruction,
		Tools:       cfg.Tools,
		Toolsets:    cfg.Toolsets,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM agent: %w", err)
	}

	a := &Agent{
		llm:         inner,
		name:        cfg.Name,
		model:       modelName,
		description: cfg.Description,
		instruction: cfg.Instruction,
		appName:     appName,
		tools:       cfg.Tools,
		toolsets:    cfg.Toolsets,
		subAgents:   cfg.SubAgents,
		sessions:    cfg.SessionService,
	}
	if a.sessions == nil {
		a.sessions = session.InMemoryService()
	}

	subAgents := append([]agent.Agent{inner}, cfg.SubAgents...)
	a.root, err = agent.New(agent.Config{
		Name:        cfg.Name,
		Description: cfg.Description,
		SubAgents:   subAgents,
		Run:         a.orchestrate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	a.runner, err = runner.New(runner.Config{
		AppName:        appName,
		Agent:          a.root,
		SessionService: a.sessions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	log.Info("Initialized agent", "name", cfg.Name, "model", modelName, "tools", len(cfg.Tools))
	return a, nil
}

func validateModel(name, fallback string) string {
	switch {
	case name != "":
		return name
	case fallback != "":
		return fallback
	default:
		return config.DefaultModel
	}
}

// orchestrate passes the turn to the LLM agent and forwards its events.
func (a *Agent) orchestrate(ctx agent.InvocationContext) iter.Seq2[*session.Event, error] {
	return func(yield func(*session.Event, error) bool) {
		log := logr.FromContextOrDiscard(ctx)
		log.V(1).Info("Starting agent execution", "agent", a.name)
		for ev, err := range a.llm.Run(ctx) {
			if !yield(ev, err) {
				return
			}
		}
		log.V(1).Info("Agent execution completed", "agent", a.name)
	}
}

func (a *Agent) Name() string                    { return a.name }
func (a *Agent) Model() string                   { return a.model }
func (a *Agent) Description() string             { return a.description }
func (a *Agent) Instruction() string             { return a.instruction }
func (a *Agent) AppName() string                 { return a.appName }
func (a *Agent) Tools() []tool.Tool              { return a.tools }
func (a *Agent) SessionService() session.Service { return a.sessions }

// ADKAgent returns the root ADK agent.
func (a *Agent) ADKAgent() agent.Agent { return a.root }

// CreateSession creates a session with optional initial state.
func (a *Agent) CreateSession(ctx context.Context, userID, sessionID string, state map[string]any) (session.Session, error) {
	if state == nil {
		state = map[string]any{}
	}
	resp, err := a.sessions.Create(ctx, &session.CreateRequest{
		AppName:   a.appName,
		UserID:    userID,
		SessionID: sessionID,
		State:     state,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	logr.FromContextOrDiscard(ctx).Info("Created session", "sessionID", resp.Session.ID(), "userID", userID)
	return resp.Session, nil
}

// GetSession returns the session or ErrSessionNotFound. Any other failure of
// the session service is returned as is.
func (a *Agent) GetSession(ctx context.Context, userID, sessionID string) (session.Session, error) {
	resp, err := a.sessions.Get(ctx, &session.GetRequest{
		AppName:   a.appName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err == nil && resp != nil && resp.Session != nil {
		return resp.Session, nil
	}
	// Services differ in how they report a missing session, so the listing
	// is the authority.
	exists, listErr := a.hasSession(ctx, userID, sessionID)
	switch {
	case listErr != nil && err != nil:
		return nil, err
	case listErr != nil:
		return nil, listErr
	case !exists:
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	case err != nil:
		return nil, err
	default:
		return nil, fmt.Errorf("session service returned no session for %s", sessionID)
	}
}

func (a *Agent) hasSession(ctx context.Context, userID, sessionID string) (bool, error) {
	sessions, err := a.ListSessions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, s := range sessions {
		if s.ID() == sessionID {
			return true, nil
		}
	}
	return false, nil
}

// ListSessions lists the sessions of a user.
func (a *Agent) ListSessions(ctx context.Context, userID string) ([]session.Session, error) {
	resp, err := a.sessions.List(ctx, &session.ListRequest{
		AppName: a.appName,
		UserID:  userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return resp.Sessions, nil
}

// EnsureSession creates the session when it does not exist yet.
func (a *Agent) EnsureSession(ctx context.Context, userID, sessionID string) error {
	_, err := a.GetSession(ctx, userID, sessionID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	_, err = a.CreateSession(ctx, userID, sessionID, nil)
	return err
}

// RunStream runs one turn and yields events as the runner produces them.
// With agent.StreamingModeSSE partial events are yielded as well.
func (a *Agent) RunStream(ctx context.Context, userID, sessionID string, msg *genai.Content, mode agent.StreamingMode) iter.Seq2[*session.Event, error] {
	return func(yield func(*session.Event, error) bool) {
		ctx, span := tracer.Start(ctx, "agent.run")
		span.SetAttributes(
			attribute.String("agent.name", a.name),
			attribute.String("user.id", userID),
			attribute.String("session.id", sessionID),
		)
		defer span.End()

		if err := a.EnsureSession(ctx, userID, sessionID); err != nil {
			span.SetStatus(codes.Error, err.Error())
			yield(nil, err)
			return
		}

		logr.FromContextOrDiscard(ctx).Info("Running agent", "agent", a.name, "userID", userID, "sessionID", sessionID)
		for ev, err := range a.runner.Run(ctx, userID, sessionID, msg, agent.RunConfig{StreamingMode: mode}) {
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
			}
			if !yield(ev, err) {
				return
			}
		}
	}
}

// Run runs one turn and collects all events.
func (a *Agent) Run(ctx context.Context, userID, sessionID string, msg *genai.Content) ([]*session.Event, error) {
	var events []*session.Event
	for ev, err := range a.RunStream(ctx, userID, sessionID, msg, agent.StreamingModeNone) {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// RunText wraps text into a user message and runs one turn.
func (a *Agent) RunText(ctx context.Context, userID, sessionID, text string) ([]*session.Event, error) {
	return a.Run(ctx, userID, sessionID, genai.NewContentFromText(text, genai.RoleUser))
}

// RunAndGetResponse runs one turn and returns the final response text, which
// is empty when the agent produced none.
func (a *Agent) RunAndGetResponse(ctx context.Context, userID, sessionID, text string) (string, error) {
	events, err := a.RunText(ctx, userID, sessionID, text)
	if err != nil {
		return "", err
	}
	return FinalResponse(events), nil
}
