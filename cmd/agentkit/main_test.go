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
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunREPL(t *testing.T) {
	var asked []string
	ask := func(_ context.Context, q string) (string, error) {
		asked = append(asked, q)
		if q == "boom" {
			return "", errors.New("model unavailable")
		}
		return "reply to " + q, nil
	}

	in := strings.NewReader("hello\n\n  boom  \nQUIT\nnever sent\n")
	var out bytes.Buffer
	require.NoError(t, runREPL(context.Background(), in, &out, "search_agent", ask))

	assert.Equal(t, []string{"hello", "boom"}, asked)
	got := out.String()
	assert.Contains(t, got, "Welcome to the search_agent Interactive Mode!")
	assert.Contains(t, got, "Type 'exit' or 'quit' to end the session.")
	assert.Contains(t, got, "Agent: reply to hello")
	assert.Contains(t, got, "Agent: Error: model unavailable")
	assert.True(t, strings.HasSuffix(got, "Goodbye!\n"), "output: %q", got)
}

func TestRunREPL_EOF(t *testing.T) {
	var out bytes.Buffer
	err := runREPL(context.Background(), strings.NewReader("hi"), &out, "a", func(context.Context, string) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Agent: ok")
	assert.NotContains(t, out.String(), "Goodbye!")
}

func TestRunREPL_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	err := runREPL(ctx, strings.NewReader("hi\n"), &out, "a", func(context.Context, string) (string, error) {
		t.Fatal("ask called after cancel")
		return "", nil
	})
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "You: ")
}

func TestExtraOptions(t *testing.T) {
	assert.Nil(t, extraOptions(nil))
	got := extraOptions(map[string]string{
		"mcp_command": "npx",
		"mcp_args":    "-y,@modelcontextprotocol/server-everything",
	})
	assert.Equal(t, map[string]any{
		"mcp_command": "npx",
		"mcp_args":    []string{"-y", "@modelcontextprotocol/server-everything"},
	}, got)
}

func TestRootCommands(t *testing.T) {
	cmd := newRootCmd(&app{})
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"run", "config", "chat-remote", "graph"})
}
