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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/adk/model"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/adk-starter/agentkit/tools"
)

func authored(author string, parts ...*genai.Part) *session.Event {
	return &session.Event{
		Author:      author,
		LLMResponse: model.LLMResponse{Content: &genai.Content{Parts: parts}},
	}
}

func TestTrace(t *testing.T) {
	events := []*session.Event{
		authored("user", genai.NewPartFromText("what time is it?")),
		authored("agent_llm", genai.NewPartFromFunctionCall("current_time", nil)),
		authored("agent_llm", genai.NewPartFromFunctionResponse("current_time", nil)),
		authored("helper", genai.NewPartFromText("it is noon")),
		nil,
	}
	want := []Edge{
		{From: "agent_llm", To: "current_time"},
		{From: "agent_llm", To: "helper"},
	}
	if diff := cmp.Diff(want, Trace(events)); diff != "" {
		t.Errorf("Trace() mismatch (-want +got):\n%s", diff)
	}
	if got := Trace(nil); got != nil {
		t.Errorf("Trace(nil) = %v, want nil", got)
	}
}

func TestGraph(t *testing.T) {
	exampleTools, err := tools.Examples()
	if err != nil {
		t.Fatal(err)
	}
	a, err := New(t.Context(), Config{
		Name:     "graph_agent",
		Tools:    exampleTools,
		LLM:      &fakeLLM{reply: "ok"},
		Settings: devSettings(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	dot, err := a.Graph([]Edge{{From: "graph_agent_llm", To: "calculate"}})
	if err != nil {
		t.Fatalf("Graph() error = %v", err)
	}
	for _, want := range []string{
		"digraph AgentGraph",
		`"graph_agent"->"graph_agent_llm"`,
		`"graph_agent_llm"->"get_current_time"`,
		`"graph_agent_llm"->"calculate"`,
		`rankdir=LR`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("Graph() output missing %q:\n%s", want, dot)
		}
	}
	if got := strings.Count(dot, "#69CB87"); got != 1 {
		t.Errorf("highlighted edges = %d, want 1:\n%s", got, dot)
	}
}
