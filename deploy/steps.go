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

package deploy

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
)

// RunSteps runs the configured shell steps in order, formatting each command
// with values from the configuration. It stops at the first failing step.
func RunSteps(ctx context.Context, cfg *Config) error {
	log := logr.FromContextOrDiscard(ctx)
	log.Info("Running deployment steps", "count", len(cfg.Steps))
	for i, step := range cfg.Steps {
		name := step.Name
		if name == "" {
			name = "Step " + strconv.Itoa(i+1)
		}
		if step.Command == "" {
			log.Info("Skipping step without a command", "step", name)
			continue
		}
		command := FormatCommand(step.Command, cfg.Raw)
		log.Info("Running step", "step", name, "command", command)
		if err := runShell(ctx, command); err != nil {
			return fmt.Errorf("step '%s' failed: %w", name, err)
		}
	}
	log.Info("All deployment steps completed successfully")
	return nil
}

func runShell(ctx context.Context, command string) error {
	log := logr.FromContextOrDiscard(ctx)
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	err := cmd.Run()
	if out := strings.TrimSpace(stdout.String()); out != "" {
		log.Info("Command output", "output", out)
	}
	if out := strings.TrimSpace(stderr.String()); out != "" {
		log.Info("Command error output", "output", out)
	}
	return err
}

// LocalArgs returns the arguments of the agentkit command that serves the
// configured agent locally.
func LocalArgs(cfg *Config) []string {
	return []string{
		"run", cfg.Agent.Type, "--web",
		"--host", cfg.Local.Host,
		"--port", strconv.Itoa(cfg.Local.Port),
		"--log-level", cfg.Local.LogLevel,
	}
}
