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

package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/go-logr/logr"
	"google.golang.org/adk/model"
	"google.golang.org/adk/session"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/genai"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/adk-starter/agentkit/agents"
)

// ResourceName returns the full reasoning engine name for id. A value that
// already is a full name is returned unchanged.
func ResourceName(project, region, id string) string {
	if strings.HasPrefix(id, "projects/") {
		return id
	}
	return fmt.Sprintf("projects/%s/locations/%s/reasoningEngines/%s", project, region, id)
}

// Parent returns the location resource name.
func Parent(project, region string) string {
	return fmt.Sprintf("projects/%s/locations/%s", project, region)
}

// Engines manages Agent Engine deployments.
type Engines struct {
	project string
	region  string

	engines   *aiplatform.ReasoningEngineClient
	execution *aiplatform.ReasoningEngineExecutionClient
}

// NewEngines connects to the regional Vertex AI endpoint.
func NewEngines(ctx context.Context, project, region string, opts ...option.ClientOption) (*Engines, error) {
	engines, err := aiplatform.NewReasoningEngineClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create reasoning engine client: %w", err)
	}
	execution, err := aiplatform.NewReasoningEngineExecutionClient(ctx, opts...)
	if err != nil {
		engines.Close()
		return nil, fmt.Errorf("failed to create reasoning engine execution client: %w", err)
	}
	return &Engines{project: project, region: region, engines: engines, execution: execution}, nil
}

func (e *Engines) Close() error {
	return errors.Join(e.engines.Close(), e.execution.Close())
}

// Name resolves an engine ID to its resource name.
func (e *Engines) Name(id string) string { return ResourceName(e.project, e.region, id) }

// Package holds the staged artifacts of an agent application.
type Package struct {
	PickleURI       string
	RequirementsURI string
	DependenciesURI string
	PythonVersion   string
}

// Stage uploads the artifacts described by spec under a prefix named after
// the agent.
func Stage(ctx context.Context, s *Stager, agentName string, spec PackageSpec) (*Package, error) {
	prefix := "agent_engine/" + agentName + "/"
	pickle, err := s.UploadFile(ctx, prefix+"agent_engine.pkl", spec.PickleFile)
	if err != nil {
		return nil, err
	}
	requirements, err := s.Upload(ctx, prefix+"requirements.txt",
		strings.NewReader(strings.Join(spec.Requirements, "\n")+"\n"))
	if err != nil {
		return nil, err
	}
	deps, err := s.UploadDir(ctx, prefix+"dependencies.tar.gz", spec.Dir)
	if err != nil {
		return nil, err
	}
	return &Package{
		PickleURI:       pickle,
		RequirementsURI: requirements,
		DependenciesURI: deps,
		PythonVersion:   spec.PythonVersion,
	}, nil
}

// ClassMethods declares the session and query methods of an ADK application.
func ClassMethods() ([]*structpb.Struct, error) {
	userParam := map[string]any{"type": "string"}
	methods := []map[string]any{
		{"name": "create_session", "api_mode": "", "parameters": objectSchema(map[string]any{"user_id": userParam}, "user_id")},
		{"name": "get_session", "api_mode": "", "parameters": objectSchema(map[string]any{"user_id": userParam, "session_id": userParam}, "user_id", "session_id")},
		{"name": "list_sessions", "api_mode": "", "parameters": objectSchema(map[string]any{"user_id": userParam}, "user_id")},
		{"name": "delete_session", "api_mode": "", "parameters": objectSchema(map[string]any{"user_id": userParam, "session_id": userParam}, "user_id", "session_id")},
		{"name": "stream_query", "api_mode": "stream", "parameters": objectSchema(map[string]any{"user_id": userParam, "session_id": userParam, "message": userParam}, "user_id", "message")},
	}
	out := make([]*structpb.Struct, 0, len(methods))
	for _, m := range methods {
		s, err := structpb.NewStruct(m)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	req := make([]any, len(required))
	for i, r := range required {
		req[i] = r
	}
	return map[string]any{"type": "object", "properties": properties, "required": req}
}

// Create deploys the staged package as a reasoning engine and waits for the
// operation to finish.
func (e *Engines) Create(ctx context.Context, displayName, description string, pkg *Package) (*aiplatformpb.ReasoningEngine, error) {
	methods, err := ClassMethods()
	if err != nil {
		return nil, err
	}
	op, err := e.engines.CreateReasoningEngine(ctx, &aiplatformpb.CreateReasoningEngineRequest{
		Parent: Parent(e.project, e.region),
		ReasoningEngine: &aiplatformpb.ReasoningEngine{
			DisplayName: displayName,
			Description: description,
			Spec: &aiplatformpb.ReasoningEngineSpec{
				PackageSpec: &aiplatformpb.ReasoningEngineSpec_PackageSpec{
					PickleObjectGcsUri:    pkg.PickleURI,
					RequirementsGcsUri:    pkg.RequirementsURI,
					DependencyFilesGcsUri: pkg.DependenciesURI,
					PythonVersion:         pkg.PythonVersion,
				},
				ClassMethods: methods,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent engine: %w", err)
	}
	logr.FromContextOrDiscard(ctx).Info("Waiting for agent engine creation", "operation", op.Name())
	engine, err := op.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("agent engine creation failed: %w", err)
	}
	return engine, nil
}

// List returns the reasoning engines of the location.
func (e *Engines) List(ctx context.Context) ([]*aiplatformpb.ReasoningEngine, error) {
	it := e.engines.ListReasoningEngines(ctx, &aiplatformpb.ListReasoningEnginesRequest{
		Parent: Parent(e.project, e.region),
	})
	var engines []*aiplatformpb.ReasoningEngine
	for {
		engine, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return engines, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list agent engines: %w", err)
		}
		engines = append(engines, engine)
	}
}

// Get returns one reasoning engine.
func (e *Engines) Get(ctx context.Context, id string) (*aiplatformpb.ReasoningEngine, error) {
	engine, err := e.engines.GetReasoningEngine(ctx, &aiplatformpb.GetReasoningEngineRequest{Name: e.Name(id)})
	if err != nil {
		return nil, fmt.Errorf("failed to get agent engine %s: %w", id, err)
	}
	return engine, nil
}

// Delete removes a reasoning engine and waits for the operation to finish.
func (e *Engines) Delete(ctx context.Context, id string) error {
	op, err := e.engines.DeleteReasoningEngine(ctx, &aiplatformpb.DeleteReasoningEngineRequest{Name: e.Name(id)})
	if err != nil {
		return fmt.Errorf("failed to delete agent engine %s: %w", id, err)
	}
	if err := op.Wait(ctx); err != nil {
		return fmt.Errorf("agent engine deletion failed: %w", err)
	}
	return nil
}

// CreateSession creates a session on a deployed engine and returns its ID.
func (e *Engines) CreateSession(ctx context.Context, id, userID string) (string, error) {
	input, err := structpb.NewStruct(map[string]any{"user_id": userID})
	if err != nil {
		return "", err
	}
	resp, err := e.execution.QueryReasoningEngine(ctx, &aiplatformpb.QueryReasoningEngineRequest{
		Name:        e.Name(id),
		ClassMethod: "create_session",
		Input:       input,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create remote session: %w", err)
	}
	sessionID := resp.GetOutput().GetStructValue().GetFields()["id"].GetStringValue()
	if sessionID == "" {
		return "", fmt.Errorf("remote session has no id: %v", resp.GetOutput())
	}
	return sessionID, nil
}

// StreamQuery sends message to a deployed engine and yields the events it
// streams back.
func (e *Engines) StreamQuery(ctx context.Context, id, userID, sessionID, message string) iter.Seq2[*session.Event, error] {
	return func(yield func(*session.Event, error) bool) {
		input, err := structpb.NewStruct(map[string]any{
			"user_id":    userID,
			"session_id": sessionID,
			"message":    message,
		})
		if err != nil {
			yield(nil, err)
			return
		}
		stream, err := e.execution.StreamQueryReasoningEngine(ctx, &aiplatformpb.StreamQueryReasoningEngineRequest{
			Name:        e.Name(id),
			ClassMethod: "stream_query",
			Input:       input,
		})
		if err != nil {
			yield(nil, fmt.Errorf("failed to query agent engine: %w", err))
			return
		}
		yieldStream(func() ([]byte, error) {
			body, err := stream.Recv()
			return body.GetData(), err
		}, yield)
	}
}

// yieldStream decodes the chunks returned by recv until io.EOF. Events are
// yielded before any decode error found in the same chunk.
func yieldStream(recv func() ([]byte, error), yield func(*session.Event, error) bool) {
	var dec StreamDecoder
	for {
		data, err := recv()
		if errors.Is(err, io.EOF) {
			if err := dec.Flush(); err != nil {
				yield(nil, err)
			}
			return
		}
		if err != nil {
			yield(nil, fmt.Errorf("agent engine stream failed: %w", err))
			return
		}
		events, err := dec.Feed(data)
		for _, ev := range events {
			if !yield(ev, nil) {
				return
			}
		}
		if err != nil && !yield(nil, err) {
			return
		}
	}
}

// remoteEvent is the JSON shape of an event streamed by an ADK application.
// Python applications dump field names in snake case.
type remoteEvent struct {
	ID           string         `json:"id"`
	InvocationID string         `json:"invocation_id"`
	Author       string         `json:"author"`
	Partial      bool           `json:"partial"`
	Content      *remoteContent `json:"content"`
}

type remoteContent struct {
	Role  string       `json:"role"`
	Parts []remotePart `json:"parts"`
}

type remotePart struct {
	Text             string          `json:"text"`
	FunctionCall     *remoteFunction `json:"function_call"`
	FunctionResponse *remoteFunction `json:"function_response"`
}

type remoteFunction struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Args     map[string]any `json:"args"`
	Response map[string]any `json:"response"`
}

func (c *remoteContent) toGenAI() *genai.Content {
	if c == nil {
		return nil
	}
	content := &genai.Content{Role: c.Role}
	for _, p := range c.Parts {
		part := &genai.Part{Text: p.Text}
		if f := p.FunctionCall; f != nil {
			part.FunctionCall = &genai.FunctionCall{ID: f.ID, Name: f.Name, Args: f.Args}
		}
		if f := p.FunctionResponse; f != nil {
			part.FunctionResponse = &genai.FunctionResponse{ID: f.ID, Name: f.Name, Response: f.Response}
		}
		content.Parts = append(content.Parts, part)
	}
	return content
}

// StreamDecoder decodes newline delimited JSON events that may be split
// across stream chunks. An incomplete trailing event is kept until the
// chunk completing it arrives.
type StreamDecoder struct {
	buf []byte
}

// Feed appends chunk and returns every event it completes. A malformed
// event is reported in the error and skipped up to the next newline, so the
// events around it are still returned.
func (d *StreamDecoder) Feed(chunk []byte) ([]*session.Event, error) {
	d.buf = append(d.buf, chunk...)
	var (
		events []*session.Event
		errs   []error
	)
	for {
		rest := bytes.TrimLeft(d.buf, " \t\r\n")
		if len(rest) == 0 {
			d.buf = nil
			return events, errors.Join(errs...)
		}
		dec := json.NewDecoder(bytes.NewReader(rest))
		var re remoteEvent
		err := dec.Decode(&re)
		var typeErr *json.UnmarshalTypeError
		switch {
		case err == nil:
			events = append(events, re.toEvent())
			d.buf = rest[dec.InputOffset():]
		case errors.Is(err, io.ErrUnexpectedEOF):
			d.buf = rest
			return events, errors.Join(errs...)
		case errors.As(err, &typeErr):
			errs = append(errs, fmt.Errorf("failed to decode agent engine event: %w", err))
			d.buf = rest[dec.InputOffset():]
		default:
			errs = append(errs, fmt.Errorf("failed to decode agent engine event: %w", err))
			if i := bytes.IndexByte(rest, '\n'); i >= 0 {
				d.buf = rest[i+1:]
			} else {
				d.buf = nil
			}
		}
	}
}

// Flush reports an event left incomplete when the stream ended.
func (d *StreamDecoder) Flush() error {
	rest := bytes.TrimSpace(d.buf)
	d.buf = nil
	if len(rest) == 0 {
		return nil
	}
	return fmt.Errorf("agent engine stream ended inside an event: %q", rest)
}

// DecodeStreamEvents decodes a complete stream query response held in data.
func DecodeStreamEvents(data []byte) ([]*session.Event, error) {
	var dec StreamDecoder
	events, err := dec.Feed(data)
	return events, errors.Join(err, dec.Flush())
}

func (re *remoteEvent) toEvent() *session.Event {
	ev := session.NewEvent(re.InvocationID)
	if re.ID != "" {
		ev.ID = re.ID
	}
	ev.Author = re.Author
	ev.LLMResponse = model.LLMResponse{Content: re.Content.toGenAI(), Partial: re.Partial}
	return ev
}

// TestResult summarizes a test conversation with a deployed engine.
type TestResult struct {
	SessionID string
	Events    int
	Response  string
}

// Test opens a session on a deployed engine, sends message, and collects
// the reply.
func (e *Engines) Test(ctx context.Context, id, userID, message string) (*TestResult, error) {
	sessionID, err := e.CreateSession(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	res := &TestResult{SessionID: sessionID}
	var events []*session.Event
	for ev, err := range e.StreamQuery(ctx, id, userID, sessionID, message) {
		if err != nil {
			return res, err
		}
		events = append(events, ev)
	}
	res.Events = len(events)
	res.Response = agents.FinalResponse(events)
	return res, nil
}
