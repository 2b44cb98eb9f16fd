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
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-logr/logr"
)

// askFunc sends one query and returns the reply to print.
type askFunc func(ctx context.Context, query string) (string, error)

// runREPL reads queries from in until EOF, "exit" or "quit". A failed query
// prints "Error: <message>" and the loop goes on.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, name string, ask askFunc) error {
	log := logr.FromContextOrDiscard(ctx)
	fmt.Fprintf(out, "\nWelcome to the %s Interactive Mode!\n", name)
	fmt.Fprintln(out, "Type 'exit' or 'quit' to end the session.")
	fmt.Fprintln(out, strings.Repeat("-", 80))

	scanner := bufio.NewScanner(in)
	for ctx.Err() == nil {
		fmt.Fprint(out, "\nYou: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		switch strings.ToLower(query) {
		case "exit", "quit":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		response, err := ask(ctx, query)
		if err != nil {
			log.Error(err, "Query failed")
			response = "Error: " + err.Error()
		}
		fmt.Fprintf(out, "\nAgent: %s\n", response)
	}
	return nil
}
