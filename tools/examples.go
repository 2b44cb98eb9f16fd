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
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/operators"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/adk/tool"
)

// now is replaced in tests.
var now = time.Now

// DefaultDateTimeLayout renders as 2006-01-02 15:04:05.
const DefaultDateTimeLayout = time.DateTime

type TimeArgs struct {
	Timezone string `json:"timezone,omitempty" jsonschema:"IANA timezone name, for example Europe/Paris. Defaults to UTC."`
}

type TimeResult struct {
	Status string `json:"status"`
	Report string `json:"report,omitempty"`
	Error  string `json:"error_message,omitempty"`
}

// CurrentTime reports the wall clock time in a timezone.
func CurrentTime(_ tool.Context, args TimeArgs) (TimeResult, error) {
	tz := args.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return TimeResult{Status: "error", Error: fmt.Sprintf("unknown timezone %q", tz)}, nil
	}
	return TimeResult{
		Status: "success",
		Report: fmt.Sprintf("The current time in %s is %s.", tz, now().In(loc).Format("03:04 PM")),
	}, nil
}

type DateTimeArgs struct {
	Layout string `json:"layout,omitempty" jsonschema:"Go time layout, defaults to 2006-01-02 15:04:05."`
}

type DateTimeResult struct {
	DateTime string `json:"datetime"`
}

// CurrentDateTime formats the local date and time.
func CurrentDateTime(_ tool.Context, args DateTimeArgs) (DateTimeResult, error) {
	layout := args.Layout
	if layout == "" {
		layout = DefaultDateTimeLayout
	}
	return DateTimeResult{DateTime: now().Format(layout)}, nil
}

type CalculateArgs struct {
	Expression string `json:"expression" jsonschema:"The arithmetic expression to calculate, for example 15 * 7 + 22."`
}

type CalculateResult struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Calculate evaluates an arithmetic expression. Evaluation errors are
// returned to the model in the result rather than failing the tool call.
func Calculate(_ tool.Context, args CalculateArgs) (CalculateResult, error) {
	v, err := Evaluate(args.Expression)
	if err != nil {
		return CalculateResult{Error: err.Error()}, nil
	}
	return CalculateResult{Result: v}, nil
}

// calcEnv is the CEL environment of the calculator. CEL has no double
// modulo, so one is declared here.
var calcEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Function(operators.Modulo,
			cel.Overload("modulo_double", []*cel.Type{cel.DoubleType, cel.DoubleType}, cel.DoubleType,
				cel.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
					return types.Double(math.Mod(float64(lhs.(types.Double)), float64(rhs.(types.Double))))
				}),
			),
		),
	)
})

// Evaluate compiles and runs expr as a CEL expression without variables.
// Integer literals are read as doubles so that 10 / 4 is 2.5 and ints and
// floats mix freely.
func Evaluate(expr string) (string, error) {
	env, err := calcEnv()
	if err != nil {
		return "", err
	}
	ast, iss := env.Compile(floatLiterals(expr))
	if iss != nil && iss.Err() != nil {
		return "", fmt.Errorf("invalid expression: %w", iss.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return "", err
	}
	out, _, err := prg.Eval(map[string]any{})
	if err != nil {
		return "", fmt.Errorf("evaluation failed: %w", err)
	}
	v, ok := out.Value().(float64)
	if !ok {
		return fmt.Sprint(out.Value()), nil
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "", errors.New("evaluation failed: division by zero or overflow")
	}
	if math.Abs(v) >= 1e21 {
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	}
	return strconv.FormatFloat(v, 'f', -1, 64), nil
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isIdent(c byte) bool {
	return isDigit(c) || c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// floatLiterals appends ".0" to every decimal integer literal in expr.
// String literals, hex and unsigned literals, and digits inside identifiers
// are left alone.
func floatLiterals(expr string) string {
	var b strings.Builder
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case c == '"' || c == '\'':
			j := i + 1
			for j < len(expr) && expr[j] != c {
				if expr[j] == '\\' {
					j++
				}
				j++
			}
			j = min(j+1, len(expr))
			b.WriteString(expr[i:j])
			i = j

		case isDigit(c) && (i == 0 || !(isIdent(expr[i-1]) || expr[i-1] == '.')):
			j := i
			for j < len(expr) && isDigit(expr[j]) {
				j++
			}
			if j < len(expr) && (expr[j] == 'x' || expr[j] == 'X' || expr[j] == 'u' || expr[j] == 'U') {
				for j < len(expr) && isIdent(expr[j]) {
					j++
				}
				b.WriteString(expr[i:j])
				i = j
				continue
			}
			float := false
			if j+1 < len(expr) && expr[j] == '.' && isDigit(expr[j+1]) {
				float = true
				j++
				for j < len(expr) && isDigit(expr[j]) {
					j++
				}
			}
			if j < len(expr) && (expr[j] == 'e' || expr[j] == 'E') {
				k := j + 1
				if k < len(expr) && (expr[k] == '+' || expr[k] == '-') {
					k++
				}
				if k < len(expr) && isDigit(expr[k]) {
					float = true
					for k < len(expr) && isDigit(expr[k]) {
						k++
					}
					j = k
				}
			}
			b.WriteString(expr[i:j])
			if !float {
				b.WriteString(".0")
			}
			i = j

		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// Examples returns the example tools: current time, current date and time
// and calculator.
func Examples() ([]tool.Tool, error) {
	timeSchema, err := InputSchema[TimeArgs](func(s *jsonschema.Schema) {
		s.Properties["timezone"].Examples = []any{"UTC", "Europe/Paris", "America/New_York"}
	})
	if err != nil {
		return nil, err
	}
	timeTool, err := NewBuilder[TimeArgs, TimeResult]("get_current_time").
		Description("Get the current time in a specific timezone.").
		InputSchema(timeSchema).
		Handler(CurrentTime).
		Build()
	if err != nil {
		return nil, err
	}
	dateTimeTool, err := New("get_current_datetime", "Get the current date and time.", CurrentDateTime)
	if err != nil {
		return nil, err
	}
	calcSchema, err := InputSchema[CalculateArgs](func(s *jsonschema.Schema) {
		expr := s.Properties["expression"]
		minLen := 1
		expr.MinLength = &minLen
		expr.Examples = []any{"15 * 7 + 22", "10 / 4", "7.5 % 2"}
	})
	if err != nil {
		return nil, err
	}
	calculator, err := NewBuilder[CalculateArgs, CalculateResult]("calculate").
		Description("Perform a calculation.").
		InputSchema(calcSchema).
		Handler(Calculate).
		Build()
	if err != nil {
		return nil, err
	}
	return []tool.Tool{timeTool, dateTimeTool, calculator}, nil
}
