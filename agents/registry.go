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
	"fmt"
	"slices"
	"sync"

	"github.com/go-logr/logr"
	"github.com/mitchellh/mapstructure"
	"google.golang.org/adk/model"
	"google.golang.org/adk/session"

	"github.com/adk-starter/agentkit/config"
)

var (
	ErrAgentTypeExists   = errors.New("agent type is already registered")
	ErrAgentTypeNotFound = errors.New("agent type is not registered")
)

// CreateOptions are forwarded to a Factory. Extra carries factory specific
// keyword options, decoded with DecodeExtra.
type CreateOptions struct {
	Name        string
	Model       string
	Description string
	Instruction string
	Extra       map[string]any

	SessionService session.Service
	LLM            model.LLM
	Settings       *config.Settings
}

// Factory builds an agent of one type.
type Factory func(ctx context.Context, opts CreateOptions) (*Agent, error)

// Registry maps agent type names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds a factory. Registering a type twice fails.
func (r *Registry) Register(agentType string, factory Factory) error {
	if agentType == "" {
		return fmt.Errorf("agent type must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory for agent type '%s' is nil", agentType)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[agentType]; ok {
		return fmt.Errorf("%w: '%s'", ErrAgentTypeExists, agentType)
	}
	r.factories[agentType] = factory
	return nil
}

// MustRegister is Register for package initialization.
func (r *Registry) MustRegister(agentType string, factory Factory) {
	if err := r.Register(agentType, factory); err != nil {
		panic(err)
	}
}

// Get returns the factory for agentType.
func (r *Registry) Get(agentType string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[agentType]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrAgentTypeNotFound, agentType)
	}
	return f, nil
}

// Create looks up the factory and invokes it.
func (r *Registry) Create(ctx context.Context, agentType string, opts CreateOptions) (*Agent, error) {
	f, err := r.Get(agentType)
	if err != nil {
		return nil, err
	}
	a, err := f(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create '%s' agent: %w", agentType, err)
	}
	logr.FromContextOrDiscard(ctx).Info("Created agent", "type", agentType, "name", a.Name())
	return a, nil
}

// List returns the registered type names in lexical order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// DecodeExtra decodes extra options into out. Unknown keys are an error.
func DecodeExtra(extra map[string]any, out any) error {
	if len(extra) == 0 {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(extra); err != nil {
		return fmt.Errorf("invalid agent options: %w", err)
	}
	return nil
}

// DefaultRegistry holds the built-in agent types.
var DefaultRegistry = NewRegistry()

func Register(agentType string, factory Factory) error {
	return DefaultRegistry.Register(agentType, factory)
}

func Create(ctx context.Context, agentType string, opts CreateOptions) (*Agent, error) {
	return DefaultRegistry.Create(ctx, agentType, opts)
}

func ListTypes() []string {
	return DefaultRegistry.List()
}
