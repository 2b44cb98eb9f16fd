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

package tools

import (
	"errors"
	"testing"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/tool"
	"google.golang.org/genai"
)

type echoArgs struct {
	Text string `json:"text"`
}

type echoResult struct {
	Text string `json:"text"`
}

func echo(_ tool.Context, args echoArgs) (echoResult, error) {
	return echoResult{Text: args.Text}, nil
}

func TestNew(t *testing.T) {
	tl, err := New("echo", "Echo the text back.", echo)
	require.NoError(t, err)
	assert.Equal(t, "echo", tl.Name())
	assert.Equal(t, "Echo the text back.", tl.Description())
}

func TestNewDefaultDescription(t *testing.T) {
	tl, err := New("echo", "", echo)
	require.NoError(t, err)
	assert.Equal(t, "Run the echo function.", tl.Description())
}

func TestNewRequiresName(t *testing.T) {
	_, err := New("", "", echo)
	assert.Error(t, err)
}

func TestBuilder(t *testing.T) {
	tl, err := NewBuilder[echoArgs, echoResult]("echo").
		Description("Echo.").
		Handler(echo).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "echo", tl.Name())
	assert.Equal(t, "Echo.", tl.Description())
}

func TestBuilderWithoutHandler(t *testing.T) {
	_, err := NewBuilder[echoArgs, echoResult]("echo").Build()
	assert.True(t, errors.Is(err, ErrNoHandler))
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr    string
		want    string
		wantErr bool
	}{
		{expr: "15 * 7 + 22", want: "127"},
		{expr: "2.5 * 2.0", want: "5"},
		{expr: "(1 + 2) * 3", want: "9"},
		{expr: "10 / 4", want: "2.5"},
		{expr: "2 * 1.5", want: "3"},
		{expr: "-3 + 1", want: "-2"},
		{expr: "10 % 3", want: "1"},
		{expr: "7.5 % 2", want: "1.5"},
		{expr: "1e3 + 1", want: "1001"},
		{expr: "1e22 * 10", want: "1e+23"},
		{expr: "3 > 2", want: "true"},
		{expr: "1 +", wantErr: true},
		{expr: "1 / 0", wantErr: true},
		{expr: "10 % 0", wantErr: true},
		{expr: "2 ** 3", wantErr: true},
	}
	for _, tt := range tests {
		got, err := Evaluate(tt.expr)
		if tt.wantErr {
			assert.Error(t, err, tt.expr)
			continue
		}
		require.NoError(t, err, tt.expr)
		assert.Equal(t, tt.want, got, tt.expr)
	}
}

func TestFloatLiterals(t *testing.T) {
	tests := map[string]string{
		"10 / 4":       "10.0 / 4.0",
		"2 * 1.5":      "2.0 * 1.5",
		"1e3 + 2E-1":   "1e3 + 2E-1",
		"0x1F + 1":     "0x1F + 1.0",
		"3u":           "3u",
		"x1 + 1":       "x1 + 1.0",
		`size("12")`:   `size("12")`,
		`'a\'1' + '2'`: `'a\'1' + '2'`,
		"(7)":          "(7.0)",
	}
	for in, want := range tests {
		assert.Equal(t, want, floatLiterals(in), in)
	}
}

func TestCalculateReportsErrorsInResult(t *testing.T) {
	res, err := Calculate(nil, CalculateArgs{Expression: "1 +"})
	require.NoError(t, err)
	assert.Empty(t, res.Result)
	assert.NotEmpty(t, res.Error)
}

func TestCurrentTime(t *testing.T) {
	orig := now
	now = func() time.Time { return time.Date(2025, 5, 1, 14, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { now = orig })

	res, err := CurrentTime(nil, TimeArgs{})
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "The current time in UTC is 02:30 PM.", res.Report)

	res, err = CurrentTime(nil, TimeArgs{Timezone: "Not/AZone"})
	require.NoError(t, err)
	assert.Equal(t, "error", res.Status)
}

func TestCurrentDateTime(t *testing.T) {
	orig := now
	now = func() time.Time { return time.Date(2025, 5, 1, 14, 30, 5, 0, time.UTC) }
	t.Cleanup(func() { now = orig })

	res, err := CurrentDateTime(nil, DateTimeArgs{})
	require.NoError(t, err)
	assert.Equal(t, "2025-05-01 14:30:05", res.DateTime)

	res, err = CurrentDateTime(nil, DateTimeArgs{Layout: "2006/01/02"})
	require.NoError(t, err)
	assert.Equal(t, "2025/05/01", res.DateTime)
}

func TestExamples(t *testing.T) {
	got, err := Examples()
	require.NoError(t, err)
	var names []string
	for _, tl := range got {
		names = append(names, tl.Name())
	}
	assert.Equal(t, []string{"get_current_time", "get_current_datetime", "calculate"}, names)
}

func TestExamplesDeclareInputSchemas(t *testing.T) {
	got, err := Examples()
	require.NoError(t, err)
	schemas := map[string]*jsonschema.Schema{}
	for _, tl := range got {
		decl, ok := tl.(interface {
			Declaration() *genai.FunctionDeclaration
		})
		require.True(t, ok, "%s has no declaration", tl.Name())
		s, ok := decl.Declaration().ParametersJsonSchema.(*jsonschema.Schema)
		require.True(t, ok, "%s declares %T", tl.Name(), decl.Declaration().ParametersJsonSchema)
		schemas[tl.Name()] = s
	}

	calc := schemas["calculate"]
	assert.Equal(t, []string{"expression"}, calc.Required)
	expr := calc.Properties["expression"]
	require.NotNil(t, expr.MinLength)
	assert.Equal(t, 1, *expr.MinLength)
	assert.Contains(t, expr.Examples, "10 / 4")
	assert.Contains(t, expr.Description, "arithmetic expression")

	tz := schemas["get_current_time"].Properties["timezone"]
	assert.Empty(t, schemas["get_current_time"].Required)
	assert.Contains(t, tz.Examples, "Europe/Paris")

	assert.Contains(t, schemas["get_current_datetime"].Properties, "layout")
}

func TestInputSchema(t *testing.T) {
	s, err := InputSchema[echoArgs](func(s *jsonschema.Schema) {
		s.Properties["text"].Description = "Text to echo."
	})
	require.NoError(t, err)
	assert.Equal(t, "object", s.Type)
	assert.Equal(t, "Text to echo.", s.Properties["text"].Description)

	tl, err := NewBuilder[echoArgs, echoResult]("echo").InputSchema(s).Handler(echo).Build()
	require.NoError(t, err)
	decl := tl.(interface {
		Declaration() *genai.FunctionDeclaration
	}).Declaration()
	assert.Same(t, s, decl.ParametersJsonSchema)
}
