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

// Package tools provides helpers for building function tools and a few
// ready made example tools.
package tools

import (
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
)

// ErrNoHandler is returned by Builder.Build when no handler was set.
var ErrNoHandler = errors.New("no handler set for the tool")

// New wraps fn as a function tool. An empty description becomes
// "Run the <name> function.".
func New[TArgs, TResults any](name, description string, fn func(tool.Context, TArgs) (TResults, error)) (tool.Tool, error) {
	return newTool(name, description, nil, fn)
}

// InputSchema infers the JSON schema of TArgs and lets edit refine it, for
// example with examples or bounds the struct tags cannot express.
func InputSchema[TArgs any](edit func(*jsonschema.Schema)) (*jsonschema.Schema, error) {
	s, err := jsonschema.For[TArgs](nil)
	if err != nil {
		return nil, fmt.Errorf("failed to infer input schema: %w", err)
	}
	if edit != nil {
		edit(s)
	}
	return s, nil
}

func newTool[TArgs, TResults any](name, description string, schema *jsonschema.Schema, fn func(tool.Context, TArgs) (TResults, error)) (tool.Tool, error) {
	if name == "" {
		return nil, fmt.Errorf("tool name is required")
	}
	if description == "" {
		description = defaultDescription(name)
	}
	return functiontool.New(functiontool.Config{
		Name:        name,
		Description: description,
		InputSchema: schema,
	}, fn)
}

func defaultDescription(name string) string {
	return fmt.Sprintf("Run the %s function.", name)
}

// Builder assembles a function tool step by step.
//
//	weather, err := tools.NewBuilder[WeatherArgs, WeatherResult]("get_weather").
//		Description("Get the current weather for a location.").
//		Handler(getWeather).
//		Build()
type Builder[TArgs, TResults any] struct {
	name        string
	description string
	schema      *jsonschema.Schema
	handler     func(tool.Context, TArgs) (TResults, error)
}

func NewBuilder[TArgs, TResults any](name string) *Builder[TArgs, TResults] {
	return &Builder[TArgs, TResults]{name: name, description: defaultDescription(name)}
}

func (b *Builder[TArgs, TResults]) Description(d string) *Builder[TArgs, TResults] {
	b.description = d
	return b
}

// InputSchema overrides the schema inferred from TArgs.
func (b *Builder[TArgs, TResults]) InputSchema(s *jsonschema.Schema) *Builder[TArgs, TResults] {
	b.schema = s
	return b
}

func (b *Builder[TArgs, TResults]) Handler(fn func(tool.Context, TArgs) (TResults, error)) *Builder[TArgs, TResults] {
	b.handler = fn
	return b
}

func (b *Builder[TArgs, TResults]) Build() (tool.Tool, error) {
	if b.handler == nil {
		return nil, ErrNoHandler
	}
	return newTool(b.name, b.description, b.schema, b.handler)
}
