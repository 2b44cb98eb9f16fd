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
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/session"
)

const (
	darkGreen  = `"#0F5223"`
	lightGreen = `"#69CB87"`
	lightGray  = `"#cccccc"`
	background = `"#333537"`
)

// Edge is a directed pair of node names, an agent and the agent or tool it
// handed work to.
type Edge struct {
	From, To string
}

// Trace returns the edges a session walked through: every change of author
// between consecutive events and every function call an author made.
func Trace(events []*session.Event) []Edge {
	var (
		edges []Edge
		prev  string
	)
	for _, ev := range events {
		if ev == nil {
			continue
		}
		if ev.Author != "" && ev.Author != "user" {
			if prev != "" && prev != ev.Author {
				edges = append(edges, Edge{From: prev, To: ev.Author})
			}
			prev = ev.Author
		}
		if ev.Content == nil {
			continue
		}
		for _, p := range ev.Content.Parts {
			if p != nil && p.FunctionCall != nil {
				edges = append(edges, Edge{From: ev.Author, To: p.FunctionCall.Name})
			}
		}
	}
	return edges
}

type graphBuilder struct {
	g         *gographviz.Graph
	highlight []Edge
	visited   map[string]bool
}

func (b *graphBuilder) touched(name string) bool {
	for _, e := range b.highlight {
		if e.From == name || e.To == name {
			return true
		}
	}
	return false
}

func (b *graphBuilder) node(name, caption, shape string) error {
	if b.visited[name] {
		return nil
	}
	b.visited[name] = true
	attrs := map[string]string{
		"label":     strconv.Quote(caption),
		"shape":     shape,
		"fontcolor": lightGray,
		"color":     lightGray,
		"style":     "rounded",
	}
	if b.touched(name) {
		attrs["color"] = darkGreen
		attrs["style"] = "filled"
	}
	return b.g.AddNode(b.g.Name, strconv.Quote(name), attrs)
}

// edge draws from -> to, colored when the trace walked it in either
// direction.
func (b *graphBuilder) edge(from, to string) error {
	attrs := map[string]string{"color": lightGray, "arrowhead": "none"}
	for _, e := range b.highlight {
		switch {
		case e.From == from && e.To == to:
			attrs = map[string]string{"color": lightGreen, "arrowhead": "normal"}
		case e.From == to && e.To == from:
			attrs = map[string]string{"color": lightGreen, "arrowhead": "normal", "dir": "back"}
		}
	}
	return b.g.AddEdge(strconv.Quote(from), strconv.Quote(to), true, attrs)
}

func (b *graphBuilder) subAgent(parent string, sub agent.Agent) error {
	if err := b.node(sub.Name(), "🤖 "+sub.Name(), "ellipse"); err != nil {
		return err
	}
	if err := b.edge(parent, sub.Name()); err != nil {
		return err
	}
	for _, child := range sub.SubAgents() {
		if err := b.subAgent(sub.Name(), child); err != nil {
			return err
		}
	}
	return nil
}

// Graph renders the agent, its LLM agent, tools and sub-agents as a
// Graphviz DOT document. Nodes and edges on the highlighted trace are
// colored.
func (a *Agent) Graph(highlight []Edge) (string, error) {
	b := &graphBuilder{g: gographviz.NewGraph(), highlight: highlight, visited: map[string]bool{}}
	if err := b.g.SetName("AgentGraph"); err != nil {
		return "", err
	}
	if err := b.g.SetDir(true); err != nil {
		return "", err
	}
	for k, v := range map[string]string{"rankdir": "LR", "bgcolor": background} {
		if err := b.g.AddAttr(b.g.Name, k, v); err != nil {
			return "", fmt.Errorf("set graph attribute %s: %w", k, err)
		}
	}

	llmName := a.llm.Name()
	if err := b.node(a.name, "🤖 "+a.name, "ellipse"); err != nil {
		return "", err
	}
	if err := b.node(llmName, "🤖 "+llmName+" ("+a.model+")", "ellipse"); err != nil {
		return "", err
	}
	if err := b.edge(a.name, llmName); err != nil {
		return "", err
	}
	for _, t := range a.tools {
		if err := b.node(t.Name(), "🔧 "+t.Name(), "box"); err != nil {
			return "", err
		}
		if err := b.edge(llmName, t.Name()); err != nil {
			return "", err
		}
	}
	for _, ts := range a.toolsets {
		if err := b.node(ts.Name(), "🧰 "+ts.Name(), "box"); err != nil {
			return "", err
		}
		if err := b.edge(llmName, ts.Name()); err != nil {
			return "", err
		}
	}
	for _, sub := range a.subAgents {
		if err := b.subAgent(a.name, sub); err != nil {
			return "", err
		}
	}
	return b.g.String(), nil
}
