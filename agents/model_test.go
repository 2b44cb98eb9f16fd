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
	"errors"
	"testing"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

func collect(t *testing.T, m model.LLM, ctx context.Context) (string, error) {
	t.Helper()
	req := &model.LLMRequest{Contents: []*genai.Content{genai.NewContentFromText("hi", genai.RoleUser)}}
	for resp, err := range m.GenerateContent(ctx, req, false) {
		if err != nil {
			return "", err
		}
		return resp.Content.Parts[0].Text, nil
	}
	return "", nil
}

func TestLazyModel_RetriesAfterFailedInit(t *testing.T) {
	errTransient := errors.New("metadata server unavailable")
	var (
		calls     int
		cancelled []bool
	)
	m := &lazyModel{
		name: "fake-model",
		newLLM: func(ctx context.Context) (model.LLM, error) {
			calls++
			cancelled = append(cancelled, ctx.Err() != nil)
			if calls == 1 {
				return nil, errTransient
			}
			return &fakeLLM{reply: "ready"}, nil
		},
	}

	if _, err := collect(t, m, t.Context()); !errors.Is(err, errTransient) {
		t.Fatalf("first request error = %v, want %v", err, errTransient)
	}

	// A request whose context is already cancelled still builds a client
	// that later requests can use.
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	got, err := collect(t, m, ctx)
	if err != nil {
		t.Fatalf("second request error = %v", err)
	}
	if got != "ready" {
		t.Errorf("second request = %q, want %q", got, "ready")
	}

	if _, err := collect(t, m, t.Context()); err != nil {
		t.Fatalf("third request error = %v", err)
	}
	if calls != 2 {
		t.Errorf("factory calls = %d, want 2", calls)
	}
	for i, c := range cancelled {
		if c {
			t.Errorf("factory call %d got a cancelled context", i+1)
		}
	}
}
