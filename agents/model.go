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
	"iter"
	"sync"

	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"

	"github.com/adk-starter/agentkit/config"
)

// lazyModel defers creating the Gemini client until the first request so an
// agent can be built in development mode without credentials. A failed
// creation is retried on the next request.
type lazyModel struct {
	name   string
	newLLM func(ctx context.Context) (model.LLM, error)

	mu  sync.Mutex
	llm model.LLM
}

var _ model.LLM = (*lazyModel)(nil)

func newLazyGemini(name string, s *config.Settings) *lazyModel {
	return &lazyModel{
		name: name,
		newLLM: func(ctx context.Context) (model.LLM, error) {
			return gemini.NewModel(ctx, name, clientConfig(s))
		},
	}
}

func clientConfig(s *config.Settings) *genai.ClientConfig {
	if s.UseVertexAI {
		return &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  s.GoogleCloudProject,
			Location: s.GoogleCloudRegion,
		}
	}
	return &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  s.GoogleAPIKey,
	}
}

func (m *lazyModel) Name() string { return m.name }

// get returns the model, creating it on first use. The client outlives the
// request, so it is built on a context that is not cancelled with it.
func (m *lazyModel) get(ctx context.Context) (model.LLM, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.llm != nil {
		return m.llm, nil
	}
	llm, err := m.newLLM(context.WithoutCancel(ctx))
	if err != nil {
		return nil, err
	}
	m.llm = llm
	return llm, nil
}

func (m *lazyModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	llm, err := m.get(ctx)
	if err != nil {
		return func(yield func(*model.LLMResponse, error) bool) {
			yield(nil, err)
		}
	}
	return llm.GenerateContent(ctx, req, stream)
}
